package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/pupilnest/pupilnest-backend/internal/config"
	"github.com/pupilnest/pupilnest-backend/internal/database"
	"github.com/pupilnest/pupilnest-backend/internal/logger"
	"github.com/pupilnest/pupilnest-backend/internal/model"
	"github.com/pupilnest/pupilnest-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	studentRepo := repository.NewStudentRepository(pool)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create Student Account ===")
	fmt.Println("An existing user name gets its password reset instead.")

	userName := prompt(reader, "Enter User Name: ")
	if len(userName) < 3 {
		fmt.Println("Error: User name must be at least 3 characters")
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // Newline after password input
	if err != nil {
		fmt.Println("Error reading password")
		return
	}
	password := string(bytePassword)
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	// ─── Reset an existing account ─────────────────────────────────────
	existing, err := studentRepo.GetByUserName(ctx, userName)
	if err == nil {
		if err := studentRepo.UpdatePassword(ctx, existing.ID, string(hashedPassword)); err != nil {
			log.Fatal().Err(err).Msg("Failed to reset password")
		}
		fmt.Printf("\nPassword reset for '%s' (ID %d). Existing logins stay valid until they expire.\n", existing.UserName, existing.ID)
		return
	}

	// ─── Create a new account ──────────────────────────────────────────
	name := prompt(reader, "Enter Full Name: ")
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}
	classID := prompt(reader, "Enter Class (optional): ")

	student := &model.Student{
		Name:         name,
		UserName:     userName,
		PasswordHash: string(hashedPassword),
		ClassID:      classID,
	}
	if err := studentRepo.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicateUserName) {
			fmt.Println("Error: User name was taken concurrently, try again")
			return
		}
		log.Fatal().Err(err).Msg("Failed to create student")
	}

	fmt.Printf("\nSuccess! Student '%s' (%s) created with ID: %d\n", student.Name, student.UserName, student.ID)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
