package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/pupilnest/pupilnest-backend/internal/config"
	"github.com/pupilnest/pupilnest-backend/internal/database"
	"github.com/pupilnest/pupilnest-backend/internal/logger"
	"github.com/pupilnest/pupilnest-backend/internal/model"
	"github.com/pupilnest/pupilnest-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var names = []string{
	"Aarav Sharma", "Diya Patel", "Vihaan Reddy", "Ananya Iyer", "Arjun Nair",
	"Ishita Gupta", "Kabir Singh", "Meera Joshi", "Rohan Das", "Saanvi Rao",
	"Aditya Kumar", "Kavya Menon", "Reyansh Verma", "Tara Pillai", "Dev Malhotra",
	"Nisha Bose", "Yash Kulkarni", "Riya Chatterjee", "Aryan Mehta", "Pooja Hegde",
}

func main() {
	count := flag.Int("n", 20, "number of students to create")
	classID := flag.String("class", "10", "class assigned to every student")
	password := flag.String("password", "practice123", "shared password for the seeded accounts")
	prefix := flag.String("prefix", "student", "user name prefix")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	studentRepo := repository.NewStudentRepository(pool)

	fmt.Printf("=== Seeding %d Students (class %s) ===\n", *count, *classID)

	// Every seeded account shares one hash.
	hash, err := bcrypt.GenerateFromPassword([]byte(*password), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	successCount, skipped := 0, 0
	for i := 0; i < *count; i++ {
		student := &model.Student{
			Name:         names[i%len(names)],
			UserName:     fmt.Sprintf("%s%02d", *prefix, i+1),
			PasswordHash: string(hash),
			ClassID:      *classID,
		}

		err := studentRepo.Create(ctx, student)
		switch {
		case errors.Is(err, repository.ErrDuplicateUserName):
			skipped++
		case err != nil:
			fmt.Printf("Error creating student %s: %v\n", student.UserName, err)
		default:
			successCount++
			if successCount%10 == 0 {
				fmt.Printf("Created %d students...\n", successCount)
			}
		}
	}

	fmt.Printf("\nSeed completed! Added %d/%d students (%d already existed).\n", successCount, *count, skipped)
}
