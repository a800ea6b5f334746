package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"lms-personalization/internal/config"
	"lms-personalization/internal/domain/model"
	pg "lms-personalization/internal/infra/db/postgres"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	schemaPath := flag.String("schema", "deploy/postgres/init.sql", "path to the schema file")
	withDemo := flag.Bool("demo", false, "seed demo courses, employees and enrollments")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	schema, err := os.ReadFile(*schemaPath)
	if err != nil {
		log.Fatalf("read schema %s: %v", *schemaPath, err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		log.Fatalf("apply schema: %v", err)
	}
	fmt.Println("schema applied")

	if !*withDemo {
		return
	}

	courseRepo := pg.NewCourseRepo(pool)
	employeeRepo := pg.NewEmployeeRepo(pool)
	mappingRepo := pg.NewEmployeeUserMappingRepo(pool)
	enrollmentRepo := pg.NewEnrollmentRepo(pool)

	if existing, err := courseRepo.List(ctx, nil); err == nil && len(existing) > 0 {
		fmt.Printf("%d courses already present. No demo data written.\n", len(existing))
		return
	}

	now := time.Now()
	courses := []*model.Course{
		{ID: uuid.NewString(), Title: "Effective Remote Collaboration", Description: "Working across time zones without losing the thread.", Category: "soft-skills", Level: "beginner", CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), Title: "Data Privacy Fundamentals", Description: "GDPR, data handling, and incident response basics.", Category: "compliance", Level: "intermediate", CreatedAt: now, UpdatedAt: now},
	}
	for _, c := range courses {
		if err := courseRepo.Save(ctx, nil, c); err != nil {
			log.Fatalf("seed course %q: %v", c.Title, err)
		}
		fmt.Printf("seeded course: %s (id=%s)\n", c.Title, c.ID)
	}

	emp := &model.Employee{
		ID:         uuid.NewString(),
		UserID:     "demo-user",
		Name:       "Dana Demo",
		Email:      "dana@example.com",
		Department: "Engineering",
		Position:   "Backend Developer",
		LearningPref: model.LearningPreferences{
			Style: "hands-on",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := employeeRepo.Save(ctx, nil, emp); err != nil {
		log.Fatalf("seed employee: %v", err)
	}
	fmt.Printf("seeded employee: %s (id=%s)\n", emp.Name, emp.ID)

	if err := mappingRepo.Save(ctx, nil, &model.EmployeeUserMapping{UserID: emp.UserID, EmployeeID: emp.ID, CreatedAt: now}); err != nil {
		log.Fatalf("seed mapping: %v", err)
	}

	for _, c := range courses {
		e := &model.Enrollment{
			ID:         uuid.NewString(),
			CourseID:   c.ID,
			EmployeeID: emp.ID,
			Status:     "enrolled",
			EnrolledAt: now,
			UpdatedAt:  now,
		}
		if err := enrollmentRepo.Save(ctx, nil, e); err != nil {
			log.Fatalf("seed enrollment: %v", err)
		}
		fmt.Printf("seeded enrollment: %s -> %s\n", emp.Name, c.Title)
	}

	fmt.Println("seeding complete")
}
