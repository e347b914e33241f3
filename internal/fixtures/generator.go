package fixtures

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"
	"github.com/okian/guildstats/internal/domain/model"
	"github.com/okian/guildstats/pkg/logger"
)

// datasetNamespace seeds the name-based dataset IDs.
var datasetNamespace = uuid.MustParse("6f1b7a2e-3c55-4d8e-9a61-2f0c8e4b7d10") //nolint:gochecknoglobals // fixed namespace

// Word lists for names and attributes.
//
//nolint:gochecknoglobals // read-only word lists
var (
	nameHeads = []string{"Thr", "Ja", "Ar", "Syl", "Ur", "Gar", "Tyr", "Ka", "Vol", "Bol", "Mag", "Ne", "Ill", "Kael", "Rex"}
	nameTails = []string{"all", "ina", "thas", "vanas", "ther", "rosh", "ande", "zan", "jin", "var", "ni", "dan", "idan", "gar"}
	classes   = []string{"Warrior", "Paladin", "Hunter", "Rogue", "Priest", "Shaman", "Mage", "Warlock", "Druid"}
	races     = []string{"Human", "Dwarf", "Night Elf", "Gnome", "Orc", "Undead", "Tauren", "Troll"}
	ranks     = []string{"Guild Master", "Officer", "Veteran", "Member", "Initiate"}
	cats      = []string{"PvE", "PvP", "Exploration", "Professions", "Misc"}
	adjs      = []string{"Swift", "Ancient", "Fearless", "Hidden", "Crimson", "Eternal", "Frozen", "Savage", "Loyal", "Lost"}
	nouns     = []string{"Slayer", "Explorer", "Champion", "Angler", "Keeper", "Conqueror", "Scholar", "Hero", "Raider", "Wanderer"}
	pets      = []string{"Mechanical Squirrel", "Black Tabby", "Sprite Darter", "Whiskers", "Tiny Crimson Whelpling", "Hippogryph Hatchling"}
	titles    = []string{"the Explorer", "Champion of the Naaru", "the Insane", "Loremaster", "Jenkins"}
	factions  = []string{"Argent Dawn", "Timbermaw Hold", "Cenarion Circle", "Thorium Brotherhood", "Hydraxian Waterlords"}
)

// Stat ranges.
const (
	maxHK         = 5000
	maxQuests     = 900
	maxRaids      = 120
	pointStep     = 5
	maxPointSteps = 10
	maxExtras     = 3
	percentMax    = 100
)

// Generate builds a dataset from cfg. The same Config always yields the
// same dataset, including its ID.
func Generate(ctx context.Context, cfg Config) (Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return Dataset{}, err
	}
	log := logger.Get()
	log.Info(ctx, "generating dataset",
		logger.Int("members", cfg.Members),
		logger.Int("achievements", cfg.Achievements),
		logger.Int64("seed", cfg.Seed))

	seed := uint64(cfg.Seed) //nolint:gosec // seed bits are reused, sign is irrelevant
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	catalog := generateAchievements(r, cfg.Achievements)
	members := make([]model.Member, 0, cfg.Members)
	used := make(map[string]int, cfg.Members)
	for i := 0; i < cfg.Members; i++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, fmt.Errorf("generate member %d: %w", i, err)
		}
		members = append(members, generateMember(r, cfg, catalog, used))
	}

	ds := Dataset{
		ID:           uuid.NewSHA1(datasetNamespace, []byte(fmt.Sprintf("%d/%d/%d/%d", cfg.Seed, cfg.Members, cfg.Achievements, cfg.UnknownRatePercent))).String(),
		Members:      members,
		Achievements: catalog,
	}
	log.Info(ctx, "generated dataset", logger.String("id", ds.ID))
	return ds, nil
}

func generateAchievements(r *rand.Rand, n int) []model.Achievement {
	out := make([]model.Achievement, 0, n)
	used := make(map[string]int, n)
	for i := 0; i < n; i++ {
		adj, noun := pick(r, adjs), pick(r, nouns)
		out = append(out, model.Achievement{
			Name:        unique(used, adj+" "+noun),
			Description: "Become a " + adj + " " + noun + ".",
			Category:    pick(r, cats),
			Points:      pointStep * (1 + r.IntN(maxPointSteps)),
		})
	}
	return out
}

func generateMember(r *rand.Rand, cfg Config, catalog []model.Achievement, used map[string]int) model.Member {
	m := model.Member{
		CharacterName: unique(used, pick(r, nameHeads)+pick(r, nameTails)),
		Class:         pick(r, classes),
		Race:          pick(r, races),
		GuildRank:     pick(r, ranks),
		Stats: model.Stats{
			HK:              r.IntN(maxHK + 1),
			QuestsCompleted: r.IntN(maxQuests + 1),
			RaidsAttended:   r.IntN(maxRaids + 1),
		},
		Achievements: []string{},
	}

	if len(catalog) > 0 {
		for _, idx := range r.Perm(len(catalog))[:r.IntN(len(catalog)+1)] {
			m.Achievements = append(m.Achievements, catalog[idx].Name)
		}
	}
	if r.IntN(percentMax) < cfg.UnknownRatePercent {
		m.Achievements = append(m.Achievements, "Retired: "+pick(r, adjs)+" "+pick(r, nouns))
	}

	m.Pets = sample(r, pets)
	m.Titles = sample(r, titles)
	m.FactionsExalted = sample(r, factions)
	return m
}

func pick(r *rand.Rand, words []string) string {
	return words[r.IntN(len(words))]
}

// sample returns up to maxExtras distinct words, or nil for none.
func sample(r *rand.Rand, words []string) []string {
	k := r.IntN(min(maxExtras, len(words)) + 1)
	if k == 0 {
		return nil
	}
	out := make([]string, 0, k)
	for _, idx := range r.Perm(len(words))[:k] {
		out = append(out, words[idx])
	}
	return out
}

// unique suffixes repeated names with a counter.
func unique(used map[string]int, name string) string {
	n := used[name]
	used[name] = n + 1
	if n == 0 {
		return name
	}
	candidate := name + " " + strconv.Itoa(n+1)
	if _, taken := used[candidate]; taken {
		return unique(used, name)
	}
	used[candidate] = 1
	return candidate
}
