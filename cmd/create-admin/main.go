package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/logiccrafts/connect-backend/internal/users"
	"github.com/logiccrafts/connect-backend/pkg/bootstrap"
)

func main() {
	name := flag.String("name", "Administrator", "display name for the admin account")
	email := flag.String("email", "", "admin email address")
	password := flag.String("password", "", "admin password (generated when empty)")
	flag.Parse()

	rt := bootstrap.Start("create-admin")
	defer rt.Shutdown()
	ctx := rt.Logger.WithField(context.Background(), "env", rt.Config.App.Env)

	dbClient, err := rt.Database(ctx)
	if err != nil {
		rt.Fatal(ctx, "failed to bootstrap database", err)
	}

	result, err := createAdmin(ctx, users.NewRepository(dbClient.DB()), rt.Config.Password, adminInput{
		Name:     *name,
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		rt.Fatal(ctx, "create admin failed", err)
	}

	rt.Logger.Info(rt.Logger.WithField(ctx, "user_id", result.User.ID.String()), "admin account created")
	fmt.Println("admin created:", result.User.Email)
	if result.GeneratedPassword != "" {
		fmt.Println("temporary password:", result.GeneratedPassword)
	}
}
