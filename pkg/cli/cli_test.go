package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/bidster/bidster/internal/storage"
	"github.com/bidster/bidster/pkg/bidstertest"
)

// TestMain acts as the main entrypoint. Testscript requires its own Main wrapper.
func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"bidster": func() int { return Run(os.Args[1:]) },
	}))
}

// TestScripts runs testdata/script against a freshly seeded fake server per
// script:
//
//	users       alice (#1), bob (#2), password "password123"
//	categories  Home (#1), Books (#2)
//	listings    #1 Brass desk lamp (alice, Home, from $10, bob bid $15)
//	            #2 Oak bookshelf (bob, Home, from $50, at 51.5, -0.12)
//	            #3 Sci-fi paperback set (bob, Books, from $5)
//	comments    #1 bob on #1, #2 alice's reply
func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: filepath.Join("testdata", "script"),
		Setup: func(env *testscript.Env) error {
			tb, ok := env.T().(testing.TB)
			if !ok {
				return errors.New("testscript.Env.T() is not a testing.TB")
			}
			srv := bidstertest.New(tb)
			seedMarketplace(srv)
			env.Setenv("BIDSTER_BASE_URL", srv.URL())
			env.Setenv("BIDSTER_CONFIG_DIR", filepath.Join(env.WorkDir, ".config"))
			return nil
		},
	})
}

func seedMarketplace(srv *bidstertest.Server) {
	alice, _ := srv.SeedUserWith(storage.User{
		Username: "alice", Password: "password123", Email: "alice@example.com",
		FirstName: "alice", LastName: "smith",
	})
	bob, _ := srv.SeedUserWith(storage.User{
		Username: "bob", Password: "password123", Email: "bob@example.com",
		FirstName: "bob",
	})
	home := srv.SeedCategory("Home")
	books := srv.SeedCategory("Books")

	lamp := srv.SeedListing(alice.ID, home.ID, "Brass desk lamp", 10)
	lat, lng := 51.5, -0.12
	srv.SeedListingWith(storage.Listing{
		OwnerID:     bob.ID,
		CategoryID:  home.ID,
		Title:       "Oak bookshelf",
		Description: "Solid oak, five shelves, some scratches on the side panel.",
		StartingBid: 50,
		Latitude:    &lat,
		Longitude:   &lng,
	})
	srv.SeedListing(bob.ID, books.ID, "Sci-fi paperback set", 5)

	srv.SeedBid(lamp.ID, bob.ID, 15)
	question := srv.SeedComment(lamp.ID, bob.ID, 0, "Does it still work?")
	srv.SeedComment(lamp.ID, alice.ID, question.ID, "Yes, perfectly.")
}
