package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key holding a student's active login JTI
func (r *CacheKeyStruct) StudentSessionKey(studentID int) string {
	return fmt.Sprintf("login:%d", studentID)
}

// AnswerKeyHash returns the hash holding question id -> correct answer text
func (r *CacheKeyStruct) AnswerKeyHash() string {
	return "questions:answer_key"
}

// StudentReportSummaryKey returns the cache key for a student's per-subject summary
func (r *CacheKeyStruct) StudentReportSummaryKey(studentID int) string {
	return fmt.Sprintf("student:%d:report_summary", studentID)
}

// ResultFeedChannel returns the Redis PubSub channel carrying graded results
func (r *CacheKeyStruct) ResultFeedChannel() string {
	return "results:feed"
}

var CacheKey = NewCacheKeyStruct()
