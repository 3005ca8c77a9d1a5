package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/nvoss/teamseek/internal/database"
	"github.com/nvoss/teamseek/internal/listing"
)

// Simplified config loading for the script
func loadConfig() map[string]string {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	config := map[string]string{
		"DB_NAME":        "teamseek.db",
		"MIGRATIONS_DIR": "./migrations",
	}
	for key := range config {
		if value, ok := os.LookupEnv(key); ok {
			config[key] = value
		}
	}
	return config
}

var teammatePool = [][]string{
	{"19", "2400", "Builder", "3h/day", "frog#1001"},
	{"23", "5100", "Raider", "5h/day", "wolf#2044"},
	{"27", "800", "Farmer", "2h/day", "hen#3370"},
	{"21", "6700", "PvP", "6h/day", "fox#4411"},
	{"30", "3100", "Electrician", "4h/day", "owl#5580"},
}

var clanPool = [][]string{
	{"Night Shift", "shadow#1", "PvP mains", "12", "clan-ns#100"},
	{"Rust Belt", "gears#7", "Builders and farmers", "8", "clan-rb#200"},
	{"Zerg Unit", "hive#9", "Anyone active", "35", "clan-zu#300"},
}

func main() {
	log.Info("Starting database seeder...")
	cfg := loadConfig()

	db, teardown, err := database.InitDB(cfg["DB_NAME"], "", "", cfg["MIGRATIONS_DIR"])
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()

	store := listing.New(db)
	sizes := []listing.TeamSize{listing.SizeDuo, listing.SizeTrio, listing.SizeQuad, listing.SizeQuadPlus}

	created := 0
	for i, attrs := range teammatePool {
		userID := fmt.Sprintf("seed-user-%d", i+1)
		if err := store.UpsertUser(userID, fmt.Sprintf("Seeder Player %c", 'A'+i)); err != nil {
			log.Fatalf("Failed to upsert user: %s", err)
		}
		size := sizes[rand.Intn(len(sizes))]
		id, err := store.CreateListing(userID, listing.CategoryTeammate, size, attrs)
		if err != nil {
			log.Fatalf("Failed to create teammate listing: %s", err)
		}
		log.Info("Seeded teammate listing", "id", id, "owner", userID, "size", size)
		created++
	}

	for i, attrs := range clanPool {
		userID := fmt.Sprintf("seed-clan-%d", i+1)
		if err := store.UpsertUser(userID, fmt.Sprintf("Seeder Clan Lead %c", 'A'+i)); err != nil {
			log.Fatalf("Failed to upsert user: %s", err)
		}
		id, err := store.CreateListing(userID, listing.CategoryClan, "", attrs)
		if err != nil {
			log.Fatalf("Failed to create clan listing: %s", err)
		}
		log.Info("Seeded clan listing", "id", id, "owner", userID)
		created++
	}

	log.Info("Seeding complete", "listings", created)
}
