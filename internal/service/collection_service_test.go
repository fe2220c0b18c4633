package service

import (
	"errors"
	"testing"

	"github.com/Mmohamed-56/StudyMon/internal/game"
)

func TestGrantStarter_OnceAndInSlotOne(t *testing.T) {
	repo := newMockRepo()
	repo.species = []game.Species{mkSpecies(1, "Emberling", "fire", 45, 12)}
	svc := NewCollectionService(repo)

	summary, err := svc.GrantStarter(testUser, "emberling")
	if err != nil {
		t.Fatalf("grant starter: %v", err)
	}
	if summary.Level != 5 || summary.CurrentHP != game.MaxHP(45, 5) {
		t.Fatalf("starter must begin at level 5 with full HP, got %+v", summary)
	}
	if summary.PartyPosition == nil || *summary.PartyPosition != 1 {
		t.Fatalf("starter must occupy slot 1, got %v", summary.PartyPosition)
	}
	if summary.CaughtMethod != "starter" {
		t.Fatalf("expected starter method, got %q", summary.CaughtMethod)
	}

	if _, err := svc.GrantStarter(testUser, "emberling"); !errors.Is(err, ErrStarterOwned) {
		t.Fatalf("expected ErrStarterOwned, got %v", err)
	}
}

func TestGrantStarter_UnknownSpecies(t *testing.T) {
	repo := newMockRepo()
	repo.species = []game.Species{mkSpecies(1, "Emberling", "fire", 45, 12)}
	svc := NewCollectionService(repo)
	if _, err := svc.GrantStarter(testUser, "Missingno"); !errors.Is(err, ErrSpeciesNotFound) {
		t.Fatalf("expected ErrSpeciesNotFound, got %v", err)
	}
}

func TestSetPartyPosition_ValidatesSlot(t *testing.T) {
	repo, creatureID := fixture(20, 40)
	svc := NewCollectionService(repo)

	bad := 5
	if err := svc.SetPartyPosition(testUser, creatureID, &bad); !errors.Is(err, ErrNotInParty) {
		t.Fatalf("expected slot 5 to be rejected, got %v", err)
	}
	good := 2
	if err := svc.SetPartyPosition(testUser, creatureID, &good); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.SetPartyPosition(testUser, creatureID, nil); err != nil {
		t.Fatalf("benching failed: %v", err)
	}
	if repo.creatures[creatureID].PartyPosition != nil {
		t.Fatal("expected creature to be benched")
	}
}

func TestStats_Aggregates(t *testing.T) {
	repo, _ := fixture(20, 40)
	repo.users[testUser] = &game.User{Email: testUser, DisplayName: "Trainer", BattlesWon: 7}
	svc := NewCollectionService(repo)

	stats, err := svc.Stats(testUser)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.BattlesWon != 7 || stats.CreaturesOwned != 1 || stats.HighestLevel != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestListCollection_DerivesStats(t *testing.T) {
	repo, creatureID := fixture(20, 40)
	svc := NewCollectionService(repo)

	owned, err := svc.ListCollection(testUser)
	if err != nil {
		t.Fatalf("list collection: %v", err)
	}
	if len(owned) != 1 {
		t.Fatalf("expected 1 creature, got %d", len(owned))
	}
	c := owned[0]
	if c.ID != creatureID || c.MaxHP != game.MaxHP(60, 1) || c.XPToNextLevel != 50 {
		t.Fatalf("unexpected summary: %+v", c)
	}
}
