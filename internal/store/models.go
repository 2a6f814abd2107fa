package store

import (
	"time"

	"gorm.io/datatypes"
)

// Learner is a person studying one target language.
type Learner struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"size:128"`
	Language  string `gorm:"size:32;not null;index"`
	Level     string `gorm:"size:2"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlacementItemRecord is one published test item, stored inline on the test.
type PlacementItemRecord struct {
	ID       string   `json:"id" yaml:"id"`
	Type     string   `json:"type" yaml:"type"`
	Prompt   string   `json:"prompt" yaml:"prompt"`
	Accepted []string `json:"accepted" yaml:"accepted"`
	Choices  []string `json:"choices,omitempty" yaml:"choices,omitempty"`
	Weight   float64  `json:"weight" yaml:"weight"`
	Order    int      `json:"order" yaml:"order"`
}

// PlacementTest is an immutable set of items for one language.
type PlacementTest struct {
	ID        string `gorm:"primaryKey;size:64"`
	Language  string `gorm:"size:32;not null;index"`
	Title     string `gorm:"size:256"`
	Items     datatypes.JSONSlice[PlacementItemRecord]
	CreatedAt time.Time
}

// AnswerRecord is one submitted answer, kept with the result for audit.
type AnswerRecord struct {
	ItemID   string `json:"item_id"`
	Response string `json:"response"`
	Correct  bool   `json:"correct"`
}

// PlacementResult is a scored submission. Rows are never updated.
type PlacementResult struct {
	ID         string `gorm:"primaryKey;size:36"`
	LearnerID  string `gorm:"size:36;not null;index"`
	TestID     string `gorm:"size:64;not null"`
	Raw        float64
	Max        float64
	Percentage float64
	Level      string `gorm:"size:2;not null"`
	Answers    datatypes.JSONSlice[AnswerRecord]
	CreatedAt  time.Time
}

// CurriculumPlan is one plan version. Deactivated plans stay as history.
type CurriculumPlan struct {
	ID             string       `gorm:"primaryKey;size:36"`
	LearnerID      string       `gorm:"size:36;not null;index"`
	Language       string       `gorm:"size:32;not null"`
	Level          string       `gorm:"size:2;not null"`
	SourceLevel    string       `gorm:"size:2"`
	Provenance     string       `gorm:"size:16;not null"`
	FallbackReason string       `gorm:"size:512"`
	Active         bool         `gorm:"not null;default:false"`
	Modules        []PlanModule `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time
	DeactivatedAt  *time.Time
}

// PlanModule is an ordered unit inside a plan.
type PlanModule struct {
	ID                string `gorm:"primaryKey;size:36"`
	PlanID            string `gorm:"size:36;not null;index"`
	Position          int    `gorm:"not null"`
	Title             string `gorm:"size:256;not null"`
	Description       string
	Objectives        datatypes.JSONSlice[string]
	AccuracyThreshold float64
	MinTasksCompleted int
	Completed         bool
	CompletedAt       *time.Time
	Tasks             []ModuleTask `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE"`
}

// ModuleTask is a gradable exercise inside a module.
type ModuleTask struct {
	ID              string `gorm:"primaryKey;size:36"`
	ModuleID        string `gorm:"size:36;not null;index"`
	Position        int    `gorm:"not null"`
	Type            string `gorm:"size:32;not null"`
	Prompt          string
	Accepted        datatypes.JSONSlice[string]
	Choices         datatypes.JSONSlice[string]
	Difficulty      int
	Rule            string
	ExampleContrast string
}

// TaskState is the per-learner running state for one task.
type TaskState struct {
	LearnerID   string `gorm:"primaryKey;size:36"`
	TaskID      string `gorm:"primaryKey;size:36"`
	Attempts    int
	BestCorrect bool
	Status      string `gorm:"size:16;not null"`
	Revision    int64
	UpdatedAt   time.Time
}

// TaskAttempt is append-only.
type TaskAttempt struct {
	ID         string `gorm:"primaryKey;size:36"`
	LearnerID  string `gorm:"size:36;not null;index:idx_attempts_learner_task"`
	TaskID     string `gorm:"size:36;not null;index:idx_attempts_learner_task"`
	Answer     string
	Correct    bool
	Similarity float64
	AwardedXP  int
	Feedback   datatypes.JSON
	CreatedAt  time.Time
}

// GamificationState is the persisted ledger row for one learner.
// LastActivity is a calendar date (YYYY-MM-DD), empty before any activity.
type GamificationState struct {
	LearnerID     string `gorm:"primaryKey;size:36"`
	TotalXP       int
	CurrentStreak int
	LongestStreak int
	LastActivity  string `gorm:"size:10"`
	History       datatypes.JSONType[map[string]int]
	Revision      int64 `gorm:"not null;default:0"`
	UpdatedAt     time.Time
}

// LLMEvent is one provider call.
type LLMEvent struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Timestamp    time.Time `gorm:"index"`
	Provider     string    `gorm:"size:32"`
	Model        string    `gorm:"size:128"`
	Purpose      string    `gorm:"size:32;index"`
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}
