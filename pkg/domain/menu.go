package domain

import (
	"time"

	"github.com/google/uuid"
)

// Menu is a navigation entry of a website module instance. Entries form a
// tree through ParentID; top-level entries have no parent.
type Menu struct {
	ID               uuid.UUID
	Key              string
	ModuleInstanceID uuid.UUID
	ParentID         *uuid.UUID
	Name             string
	MenuType         string
	Route            string
	Public           bool
	Position         int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// MenuSeed is an entry created for a website when a module is enabled.
type MenuSeed struct {
	MenuType string
	Route    string
	Position int
}

// MenuSeeds lists the entries each module kind contributes to the tenant's
// website. Kinds without entries contribute nothing.
var MenuSeeds = map[ModuleKind][]MenuSeed{
	ModuleWebsite: {
		{"NEWS", "/news", 1},
		{"EVENTS", "/events", 2},
		{"NEWSSUBSCRIPTION", "/news-subscription", 3},
		{"ALBUM", "/album", 4},
		{"ABOUTUS", "/about-us", 5},
	},
	ModuleEducation: {
		{"ALUMNI", "/alumni", 6},
		{"PROGRAMS", "/programs", 7},
		{"FACILITIES", "/facilities", 8},
	},
	ModuleJournal: {
		{"JOURNAL_ARCHIVES", "/journal/archives", 6},
		{"JOURNAL_COMING", "/journal/coming", 7},
		{"JOURNAL_PAGE", "/journal/page", 8},
		{"JOURNAL_CURRENT", "/journal/current", 9},
	},
	ModuleJournalIndex: {
		{"JOURNAL_INDEX_REGISTRATION", "/journal-index/registration", 6},
		{"JOURNAL_INDEX_SEARCH", "/journal-index/search", 7},
	},
}
