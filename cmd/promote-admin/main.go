package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hearthstay/server/internal/config"
	"github.com/hearthstay/server/internal/database"
	"github.com/hearthstay/server/internal/logger"
	"github.com/hearthstay/server/internal/models"
	"github.com/hearthstay/server/internal/repository"
	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	email := flag.String("email", "", "Email address of user to promote to admin")
	userID := flag.String("id", "", "User ID to promote to admin")
	revoke := flag.Bool("revoke", false, "Revoke admin privileges instead of granting")
	list := flag.Bool("list", false, "List current admins")
	flag.Parse()

	if *email == "" && *userID == "" && !*list {
		fmt.Println("Usage: promote-admin -email=user@example.com [-revoke]")
		fmt.Println("       promote-admin -id=<user id> [-revoke]")
		fmt.Println("       promote-admin -list")
		os.Exit(1)
	}

	logger.InitializeForTest()
	if err := database.Initialize(config.Load()); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	users := repository.NewUserRepository(database.DB)

	if *list {
		admins, err := users.ListAdmins(ctx)
		if err != nil {
			log.Fatalf("Failed to list admins: %v", err)
		}
		for _, u := range admins {
			fmt.Printf("%s  %s  %s\n", u.ID, u.Email, u.DisplayName)
		}
		return
	}

	var (
		user *models.User
		err  error
	)
	if *userID != "" {
		user, err = users.GetUser(ctx, *userID)
	} else {
		user, err = users.GetUserByEmail(ctx, *email)
	}
	if errors.Is(err, repository.ErrUserNotFound) {
		fmt.Println("User not found. Users appear here after their first authenticated request.")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("Lookup failed: %v", err)
	}

	grant := !*revoke
	if user.IsAdmin == grant {
		fmt.Printf("Nothing to do: %s admin=%t\n", user.Email, user.IsAdmin)
		return
	}

	if err := users.SetAdmin(ctx, user.ID, grant); err != nil {
		log.Fatalf("Failed to update admin flag: %v", err)
	}

	if grant {
		fmt.Printf("Admin privileges granted to %s (%s)\n", user.Email, user.ID)
	} else {
		fmt.Printf("Admin privileges revoked for %s (%s)\n", user.Email, user.ID)
	}
}
