// Operator CLI for user and API key management. Useful when keys need to be
// issued or revoked out of band, without going through the HTTP API.
//
//	apikey -email user@example.com -first Jane -last Doe         # create user (if missing) and issue a key
//	apikey -email user@example.com -revoke                       # revoke the user's live key
package main

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/hoangchung16-00/personal-finance-backend/internal/config"
	"github.com/hoangchung16-00/personal-finance-backend/internal/domain"
	"github.com/hoangchung16-00/personal-finance-backend/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	email := flag.String("email", "", "user email (required)")
	first := flag.String("first", "", "first name (required when creating a user)")
	last := flag.String("last", "", "last name (required when creating a user)")
	revoke := flag.Bool("revoke", false, "revoke the user's live API key instead of issuing one")
	flag.Parse()

	if *email == "" {
		logrus.Fatal("-email is required")
	}

	cfg := config.LoadConfig()
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}

	var user domain.User
	err = db.Where("email = ?", *email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if *revoke {
			logrus.Fatalf("no user with email %s", *email)
		}
		if *first == "" || *last == "" {
			logrus.Fatal("-first and -last are required when creating a user")
		}
		user = domain.User{Email: *email, FirstName: *first, LastName: *last}
		if err := db.Create(&user).Error; err != nil {
			logrus.Fatalf("failed to create user: %v", err)
		}
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("User created")
	case err != nil:
		logrus.Fatalf("failed to look up user: %v", err)
	}

	if *revoke {
		if err := db.Model(&user).Updates(map[string]any{
			"api_key_digest":     nil,
			"api_key_created_at": nil,
		}).Error; err != nil {
			logrus.Fatalf("failed to revoke API key: %v", err)
		}
		logrus.WithFields(logrus.Fields{"user_id": user.ID}).Info("API key revoked")
		return
	}

	key, err := utils.GenerateAPIKey()
	if err != nil {
		logrus.Fatalf("failed to generate API key: %v", err)
	}
	digest := utils.DigestAPIKey(key)
	now := time.Now()
	if err := db.Model(&user).Updates(map[string]any{
		"api_key_digest":     digest,
		"api_key_created_at": now,
	}).Error; err != nil {
		logrus.Fatalf("failed to store API key digest: %v", err)
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID}).Info("API key issued")
	// The plaintext key is printed once and never stored
	fmt.Println(key)
}
