// Command seed fills the database with a few demo users and one message
// each, for local development. Existing accounts are left alone.
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"clubhouse/internal/config"
	"clubhouse/internal/repository/sqlite"
	"clubhouse/internal/service"
)

const loremIpsum = "In publishing and graphic design, Lorem ipsum is a placeholder text " +
	"commonly used to demonstrate the visual form of a document or a typeface " +
	"without relying on meaningful content."

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx := context.Background()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	messageRepo := sqlite.NewMessageRepository(db)

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := messageRepo.Init(ctx); err != nil {
		logger.Fatalf("init message repository: %v", err)
	}

	users := service.NewUserService(userRepo, cfg.Membership.MemberPass, cfg.Membership.AdminPass)
	messages := service.NewMessageService(messageRepo)

	for i := 1; i < 4; i++ {
		email := fmt.Sprintf("Bob%d@gmail.com", i)
		user, err := users.Signup(ctx, email, fmt.Sprintf("Bob%d", i), fmt.Sprintf("Smith%d", i), email, email)
		if err != nil {
			if errors.Is(err, service.ErrUserAlreadyExists) {
				logger.Infof("user %s already exists, skipping", email)
				continue
			}
			logger.Fatalf("seed user %s: %v", email, err)
		}

		title := fmt.Sprintf("Message # %d", i)
		if _, err := messages.Create(ctx, user.ID, title, loremIpsum); err != nil {
			logger.Fatalf("seed message for %s: %v", email, err)
		}
		logger.Infof("seeded user %s with one message", email)
	}
}
