package brief

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mkerring/talkshop/internal/config"
)

// seedBrief is one built-in challenge day written on first run.
type seedBrief struct {
	filename string
	content  string
}

var seedBriefs = []seedBrief{
	{
		filename: "day01_barista.md",
		content: `---
day: 1
title: Take a Coffee Order
persona: barista
hashtags: ["#voicechallenge", "#day1"]
---

# Day 1: Take a Coffee Order

Give your agent a coffee shop job. It should collect a full drink order,
read it back, and only save it once the caller confirms.

1. Connect to your agent and say hello.
2. Record a full order: drink, size, milk, a name for the cup.
3. Post your saved order file once the agent confirms it.
4. Hashtag your post so the rest of the cohort can find it.
`,
	},
	{
		filename: "day02_grocer.md",
		content: `---
day: 2
title: Shop a Grocery Catalog
persona: grocer
hashtags: ["#voicechallenge", "#day2"]
---

# Day 2: Shop a Grocery Catalog

Today the agent runs a grocery counter. Ask for a dish and let it fill the
cart with everything the recipe needs, then place the order.

1. Connect and ask the clerk what's in stock.
2. Record an order built from a dish, not item by item.
3. Post the confirmation number it reads back.
4. Hashtag the post before you sign off.
`,
	},
	{
		filename: "day03_sentinel.md",
		content: `---
day: 3
title: Review a Flagged Charge
persona: sentinel
hashtags: ["#voicechallenge", "#day3"]
---

# Day 3: Review a Flagged Charge

Fraud review flips the script: the agent calls you. It must verify who you
are before it reveals anything about the transaction.

1. Connect as the cardholder the agent is trying to reach.
2. Record the verification exchange, including a wrong answer first.
3. Post the case outcome once you resolve the charge.
4. Hashtag it and tag a teammate to try the fraud path.
`,
	},
	{
		filename: "day04_wellness.md",
		content: `---
day: 4
title: Run a Daily Check-in
persona: wellness
hashtags: ["#voicechallenge", "#day4"]
---

# Day 4: Run a Daily Check-in

A softer build: one log entry per day with your mood and objectives, and
recall of what you planned yesterday.

1. Connect and tell the coach how you're feeling.
2. Record two or three objectives for the day.
3. Post your saved check-in entry.
4. Hashtag your streak so far.
`,
	},
	{
		filename: "day05_tutor.md",
		content: `---
day: 5
title: Track Study Mastery
persona: tutor
hashtags: ["#voicechallenge", "#day5"]
---

# Day 5: Track Study Mastery

The tutor remembers between calls. Every attempt updates a running
accuracy per topic, and the agent steers you toward your weakest one.

1. Connect and pick two study topics.
2. Record a handful of attempts, some wrong on purpose.
3. Post the mastery report the agent reads back.
4. Hashtag your weakest topic and own it.
`,
	},
}

// Seed writes the built-in briefs into briefs/ when the directory has no
// markdown files yet. Existing briefs are never overwritten.
func Seed(cfg *config.Config) (int, error) {
	dir := cfg.BriefsDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("brief: read dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".md" {
			return 0, nil
		}
	}

	written := 0
	for _, seed := range seedBriefs {
		path := filepath.Join(dir, seed.filename)
		if err := os.WriteFile(path, []byte(seed.content), 0o644); err != nil {
			return written, fmt.Errorf("brief: write %s: %w", path, err)
		}
		written++
	}
	return written, nil
}
