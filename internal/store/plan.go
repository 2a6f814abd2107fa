package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PlanRepo struct {
	db *gorm.DB
}

// Activate makes plan the learner's single active plan. Inside one
// transaction it deactivates every existing plan of the learner and then
// inserts plan (with its modules and tasks) as active. IDs are assigned
// where empty.
func (r *PlanRepo) Activate(ctx context.Context, tx *gorm.DB, plan *CurriculumPlan) error {
	assignPlanIDs(plan)
	plan.Active = true
	plan.DeactivatedAt = nil

	err := conn(r.db, tx).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		if err := tx.Model(&CurriculumPlan{}).
			Where("learner_id = ? AND active = ?", plan.LearnerID, true).
			Updates(map[string]any{"active": false, "deactivated_at": now}).Error; err != nil {
			return err
		}
		return tx.Create(plan).Error
	})
	return MapError(err)
}

func assignPlanIDs(plan *CurriculumPlan) {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	for i := range plan.Modules {
		m := &plan.Modules[i]
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		m.PlanID = plan.ID
		for j := range m.Tasks {
			t := &m.Tasks[j]
			if t.ID == "" {
				t.ID = uuid.NewString()
			}
			t.ModuleID = m.ID
		}
	}
}

func withModules(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Modules", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Modules.Tasks", func(db *gorm.DB) *gorm.DB { return db.Order("position") })
}

// Active returns the learner's active plan with modules and tasks.
func (r *PlanRepo) Active(ctx context.Context, tx *gorm.DB, learnerID string) (*CurriculumPlan, error) {
	var p CurriculumPlan
	err := withModules(conn(r.db, tx).WithContext(ctx)).
		Where("learner_id = ? AND active = ?", learnerID, true).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, MapError(err)
	}
	return &p, nil
}

// CountActive returns how many active plans a learner has. Always 0 or 1
// unless the schema is broken.
func (r *PlanRepo) CountActive(ctx context.Context, tx *gorm.DB, learnerID string) (int64, error) {
	var n int64
	err := conn(r.db, tx).WithContext(ctx).Model(&CurriculumPlan{}).
		Where("learner_id = ? AND active = ?", learnerID, true).
		Count(&n).Error
	return n, MapError(err)
}

// History returns all of a learner's plans, newest first, without tasks.
func (r *PlanRepo) History(ctx context.Context, tx *gorm.DB, learnerID string) ([]CurriculumPlan, error) {
	var out []CurriculumPlan
	err := conn(r.db, tx).WithContext(ctx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("learner_id = ?", learnerID).
		Order("created_at DESC").
		Find(&out).Error
	return out, MapError(err)
}

// GetModule returns a module with its tasks.
func (r *PlanRepo) GetModule(ctx context.Context, tx *gorm.DB, moduleID string) (*PlanModule, error) {
	var m PlanModule
	err := conn(r.db, tx).WithContext(ctx).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("id = ?", moduleID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, MapError(err)
	}
	return &m, nil
}

// GetPlan returns a plan without its modules.
func (r *PlanRepo) GetPlan(ctx context.Context, tx *gorm.DB, planID string) (*CurriculumPlan, error) {
	var p CurriculumPlan
	if err := conn(r.db, tx).WithContext(ctx).Where("id = ?", planID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, MapError(err)
	}
	return &p, nil
}

// MarkModuleCompleted sets the completion flag once; later calls keep the
// first timestamp.
func (r *PlanRepo) MarkModuleCompleted(ctx context.Context, tx *gorm.DB, moduleID string, at time.Time) error {
	err := conn(r.db, tx).WithContext(ctx).Model(&PlanModule{}).
		Where("id = ? AND completed = ?", moduleID, false).
		Updates(map[string]any{"completed": true, "completed_at": at}).Error
	return MapError(err)
}
