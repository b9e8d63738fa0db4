package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/anishLS3/Placify-sub001/internal/api/routes"
	"github.com/anishLS3/Placify-sub001/internal/config"
	"github.com/anishLS3/Placify-sub001/internal/contentgate"
	"github.com/anishLS3/Placify-sub001/internal/database"
	"github.com/anishLS3/Placify-sub001/internal/logger"
)

func main() {
	logger.Init(false, os.Stdout)
	log := logger.Component("seed")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	fmt.Println("✓ Database migrated successfully")

	svc := routes.NewServices(db, cfg, nil, nil)
	ctx := context.Background()

	if cfg.AdminEmail != "" {
		if _, created, err := svc.Auth.EnsureAdmin(cfg.AdminEmail, cfg.AdminPassword, "Administrator"); err != nil {
			log.WithError(err).Warn("Failed to seed admin")
		} else if created {
			fmt.Printf("✓ Created admin: %s\n", cfg.AdminEmail)
		}
	}

	// Seed experiences
	experiences := []contentgate.ExperienceSubmission{
		{
			CandidateName: "Asha Rao",
			Email:         "asha@example.com",
			Company:       "Acme Corp",
			Role:          "SDE Intern",
			Location:      "Bengaluru",
			Year:          2025,
			Difficulty:    "medium",
			Outcome:       "selected",
			Rounds:        "Online assessment, two technical interviews, HR",
			Experience:    "The online assessment had two array problems and one SQL query. The technical rounds focused on hashing, trees and a small design discussion about a URL shortener.",
			Tips:          "Practice explaining your approach before coding.",
		},
		{
			CandidateName: "Vikram Shah",
			Company:       "Globex",
			Role:          "Data Analyst",
			Location:      "Pune",
			Year:          2025,
			Difficulty:    "easy",
			Outcome:       "not-selected",
			Experience:    "A single case study round followed by a statistics quiz. The panel asked about A/B testing and how to deal with missing values in a survey dataset.",
		},
		{
			CandidateName: "Meera Iyer",
			Email:         "meera@example.com",
			Company:       "Initech",
			Role:          "Backend Engineer",
			Year:          2024,
			Difficulty:    "hard",
			Outcome:       "pending",
			Rounds:        "Take-home, pairing session, system design",
			Experience:    "The take-home was a rate limiter service with tests. The pairing session extended it with persistence, and the design round covered sharding a job queue.",
		},
	}
	for _, in := range experiences {
		e, err := svc.Submissions.SubmitExperience(ctx, in)
		if err != nil {
			log.WithError(err).WithField("company", in.Company).Warn("Failed to seed experience")
			continue
		}
		fmt.Printf("✓ Created experience: %s / %s (%s)\n", e.Company, e.Role, e.ID)
	}

	// Seed contacts
	contacts := []contentgate.ContactSubmission{
		{Name: "Ravi Kumar", Email: "ravi@example.com", Subject: "Broken company page", Category: "bug", Message: "The Globex company page shows an empty list."},
		{Name: "Nisha Patel", Email: "nisha@example.com", Subject: "Campus partnership", Category: "partnership", Message: "Our placement cell would like to share experiences from our students."},
	}
	for _, in := range contacts {
		contact, err := svc.Submissions.SubmitContact(ctx, in)
		if err != nil {
			log.WithError(err).WithFields(logrus.Fields{"subject": in.Subject}).Warn("Failed to seed contact")
			continue
		}
		fmt.Printf("✓ Created contact: %s (%s)\n", contact.Subject, contact.ID)
	}

	fmt.Println("\n✓ Database seeded successfully!")
}
