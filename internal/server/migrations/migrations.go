// Package migrations embeds the goose SQL migrations for the relational
// schema (users, card_type, cards, user_swipes).
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
