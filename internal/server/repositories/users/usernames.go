package users

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/civicdeck/backend/internal/common"
	"github.com/civicdeck/backend/internal/dbx"
)

// Word lists for generated color-animal usernames.
var (
	usernameColors = []string{
		"amber", "azure", "beige", "black", "blue", "bronze", "brown", "copper",
		"coral", "crimson", "cyan", "emerald", "fuchsia", "gold", "gray", "green",
		"indigo", "ivory", "jade", "lavender", "lime", "magenta", "maroon", "navy",
		"olive", "orange", "pink", "plum", "purple", "red", "salmon", "scarlet",
		"silver", "tan", "teal", "turquoise", "violet", "white", "yellow",
	}
	usernameAnimals = []string{
		"albatross", "antelope", "badger", "bear", "beaver", "bison", "bobcat",
		"buffalo", "camel", "cheetah", "condor", "cougar", "coyote", "crane",
		"dolphin", "eagle", "falcon", "ferret", "fox", "gazelle", "hawk", "heron",
		"ibex", "jaguar", "kestrel", "lemur", "leopard", "lynx", "marmot", "moose",
		"narwhal", "ocelot", "osprey", "otter", "owl", "panther", "pelican",
		"puffin", "raccoon", "raven", "salamander", "seal", "stork", "tiger",
		"walrus", "wolf", "wolverine", "wombat", "yak", "zebra",
	}
)

// randIntn is a seam for deterministic tests.
var randIntn = rand.Intn

const maxUsernameAttempts = 10

// generateUsername picks a random color-animal pair and retries until the
// pair is not already taken.
func generateUsername(ctx context.Context, db dbx.DBTX) (string, error) {
	query := `SELECT id FROM users WHERE username = $1`

	for attempt := 0; attempt < maxUsernameAttempts; attempt++ {
		username := fmt.Sprintf("%s-%s",
			usernameColors[randIntn(len(usernameColors))],
			usernameAnimals[randIntn(len(usernameAnimals))])

		rows, err := db.QueryContext(ctx, query, username)
		if err != nil {
			return "", common.WrapStorage("users.username", err)
		}
		taken := rows.Next()
		if err := rows.Close(); err != nil {
			return "", common.WrapStorage("users.username", err)
		}
		if err := rows.Err(); err != nil {
			return "", common.WrapStorage("users.username", err)
		}

		if !taken {
			return username, nil
		}
	}
	return "", fmt.Errorf("username generation: no free name after %d attempts", maxUsernameAttempts)
}
