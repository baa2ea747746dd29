package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"spotbnb/internal/auth"
	"spotbnb/internal/config"
	"spotbnb/internal/database"
	"spotbnb/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type seedUser struct {
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Email     string `yaml:"email"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
}

type seedReview struct {
	Username string `yaml:"username"`
	Review   string `yaml:"review"`
	Stars    int    `yaml:"stars"`
}

type seedSpot struct {
	Owner       string       `yaml:"owner"`
	Address     string       `yaml:"address"`
	City        string       `yaml:"city"`
	State       string       `yaml:"state"`
	Country     string       `yaml:"country"`
	Lat         float64      `yaml:"lat"`
	Lng         float64      `yaml:"lng"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Price       float64      `yaml:"price"`
	Images      []string     `yaml:"images"`
	Reviews     []seedReview `yaml:"reviews"`
}

type SeedConfig struct {
	Users []seedUser `yaml:"users"`
	Spots []seedSpot `yaml:"spots"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		seedPath = flag.String("seed", "configs/seed.yaml", "path to seed.yaml")
		dbPath   = flag.String("db", "./data/spotbnb.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*seedPath)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	var cfg SeedConfig
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}
	if len(cfg.Users) == 0 {
		return fmt.Errorf("no users in yaml")
	}

	db, err := database.NewDB(config.DatabaseConfig{Driver: config.DriverSQLite, Path: *dbPath}, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users, created, err := seedUsers(ctx, db, cfg.Users)
	if err != nil {
		return err
	}

	spots := 0
	for _, sp := range cfg.Spots {
		owner, ok := users[sp.Owner]
		if !ok {
			return fmt.Errorf("spot %q: unknown owner %q", sp.Name, sp.Owner)
		}
		exists, err := ownerHasSpot(ctx, db, owner.ID, sp.Name)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := createSpot(ctx, db, owner.ID, sp, users); err != nil {
			return fmt.Errorf("create spot %s: %w", sp.Name, err)
		}
		spots++
	}

	fmt.Printf("done: users=%d spots=%d\n", created, spots)
	return nil
}

// seedUsers creates missing users and returns every seeded user by username.
func seedUsers(ctx context.Context, db *database.DB, in []seedUser) (map[string]*models.User, int, error) {
	users := make(map[string]*models.User, len(in))
	created := 0
	for _, u := range in {
		existing, err := db.GetUserByCredential(ctx, u.Username)
		if err == nil {
			users[u.Username] = existing
			continue
		}
		if !errors.Is(err, database.ErrNotFound) {
			return nil, 0, fmt.Errorf("get %s: %w", u.Username, err)
		}

		hash, err := auth.HashPassword(u.Password, 0)
		if err != nil {
			return nil, 0, err
		}
		user := &models.User{
			FirstName:      u.FirstName,
			LastName:       u.LastName,
			Email:          u.Email,
			Username:       u.Username,
			HashedPassword: hash,
		}
		if err := db.CreateUser(ctx, user); err != nil {
			return nil, 0, fmt.Errorf("create %s: %w", u.Username, err)
		}
		users[u.Username] = user
		created++
	}
	return users, created, nil
}

func ownerHasSpot(ctx context.Context, db *database.DB, ownerID int64, name string) (bool, error) {
	owned, err := db.ListSpots(ctx, models.SpotFilter{OwnerID: &ownerID})
	if err != nil {
		return false, err
	}
	for _, s := range owned {
		if s.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func createSpot(ctx context.Context, db *database.DB, ownerID int64, sp seedSpot, users map[string]*models.User) error {
	spot := &models.Spot{
		OwnerID:     ownerID,
		Address:     sp.Address,
		City:        sp.City,
		State:       sp.State,
		Country:     sp.Country,
		Lat:         sp.Lat,
		Lng:         sp.Lng,
		Name:        sp.Name,
		Description: sp.Description,
		Price:       sp.Price,
	}
	if err := db.CreateSpot(ctx, spot); err != nil {
		return err
	}

	for i, url := range sp.Images {
		if err := db.CreateSpotImage(ctx, &models.SpotImage{SpotID: spot.ID, URL: url, Preview: i == 0}); err != nil {
			return err
		}
	}

	for _, r := range sp.Reviews {
		author, ok := users[r.Username]
		if !ok {
			return fmt.Errorf("unknown reviewer %q", r.Username)
		}
		review := &models.Review{UserID: author.ID, SpotID: spot.ID, Review: r.Review, Stars: r.Stars}
		if err := db.CreateReview(ctx, review); err != nil {
			return err
		}
	}
	return nil
}
