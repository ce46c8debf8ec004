package config

import "github.com/roach88/relive/internal/ir"

// Default returns the standard game configuration.
func Default() *Config {
	return &Config{
		Stat: StatConfig{
			Total:  20,
			Min:    0,
			Max:    10,
			Spirit: 5,
			Grades: defaultGrades(),
		},
		Talent: TalentConfig{
			Limit:   3,
			Choices: 10,
			Pinned:  []int{1144, 1141},
			Weight:  TalentWeight{Total: 1000, Uncommon: 100, Rare: 10, Legendary: 1},
			Boost: TalentBoost{
				FinishedGames: steps(func(n int) Boost { return Boost{Rare: n} }),
				Achievements:  steps(func(n int) Boost { return Boost{Legendary: n} }),
			},
		},
		Character: CharacterConfig{
			StatWeights: []ValueWeight{
				{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 6},
				{6, 5}, {7, 4}, {8, 3}, {9, 2}, {10, 1},
			},
			TalentCountWeights: []ValueWeight{{1, 1}, {2, 2}, {3, 3}, {4, 2}, {5, 1}},
			Choices:            3,
			DefaultName:        "One of a Kind",
		},
		Engine:  EngineConfig{MaxChain: 1000},
		Logging: LoggingConfig{Level: "info"},
	}
}

// steps builds the 10/30/50/70/100 ladder with boost(1)..boost(5).
func steps(boost func(int) Boost) []BoostStep {
	mins := []int{10, 30, 50, 70, 100}
	out := make([]BoostStep, len(mins))
	for i, m := range mins {
		out[i] = BoostStep{Min: m, Boost: boost(i + 1)}
	}
	return out
}

var commonLabels = []string{"dismal", "poor", "modest", "ordinary", "good", "excellent", "peerless", "transcendent"}

// commonScale is the shared 0..11 scale of charm, intelligence, strength and
// money.
func commonScale() []Grade {
	mins := []int{0, 1, 2, 4, 7, 9, 11}
	rarities := []ir.Rarity{ir.Common, ir.Common, ir.Common, ir.Common, ir.Uncommon, ir.Rare, ir.Legendary}
	out := make([]Grade, len(mins))
	for i := range mins {
		out[i] = Grade{Min: mins[i], Rarity: rarities[i], Label: commonLabels[i]}
	}
	return out
}

func defaultGrades() GradeTables {
	spirit := commonScale()
	for i, label := range []string{"miserable", "gloomy", "unsettled", "content", "cheerful", "joyful", "blissful"} {
		spirit[i].Label = label
	}

	return GradeTables{
		Age: []Grade{
			{0, ir.Common, "stillborn"},
			{1, ir.Common, "died in infancy"},
			{10, ir.Common, "died young"},
			{18, ir.Common, "died in youth"},
			{40, ir.Common, "died in middle age"},
			{60, ir.Uncommon, "grew old"},
			{70, ir.Uncommon, "lived long"},
			{80, ir.Rare, "octogenarian"},
			{90, ir.Rare, "nonagenarian"},
			{95, ir.Legendary, "centenarian"},
			{100, ir.Legendary, "supercentenarian"},
			{500, ir.Legendary, "immortal"},
		},
		Charm: commonScale(),
		Intelligence: append(commonScale(),
			Grade{21, ir.Legendary, "genius"},
			Grade{131, ir.Legendary, "omniscient"},
			Grade{501, ir.Legendary, "cosmic mind"},
		),
		Strength: append(commonScale(),
			Grade{21, ir.Legendary, "superhuman"},
			Grade{101, ir.Legendary, "titan"},
			Grade{401, ir.Legendary, "demigod"},
			Grade{1001, ir.Legendary, "god"},
			Grade{2001, ir.Legendary, "primordial"},
		),
		Money:  commonScale(),
		Spirit: spirit,
		Overall: []Grade{
			{0, ir.Common, commonLabels[0]},
			{41, ir.Common, commonLabels[1]},
			{50, ir.Common, commonLabels[2]},
			{60, ir.Common, commonLabels[3]},
			{80, ir.Uncommon, commonLabels[4]},
			{100, ir.Rare, commonLabels[5]},
			{110, ir.Legendary, commonLabels[6]},
			{120, ir.Legendary, commonLabels[7]},
		},
		FinishedGames: ladder("newcomer", "regular", "devotee", "veteran", "addict", "eternal returner"),
		Achievements:  ladder("unremarkable", "collector", "hunter", "completionist", "legend", "myth"),
		EventPercentage: []Grade{
			{0, ir.Common, ""}, {20, ir.Uncommon, ""}, {40, ir.Rare, ""}, {60, ir.Legendary, ""},
		},
		TalentPercentage: []Grade{
			{0, ir.Common, ""}, {30, ir.Uncommon, ""}, {60, ir.Rare, ""}, {90, ir.Legendary, ""},
		},
	}
}

// ladder builds the 0/10/30/50/70/100 counter table.
func ladder(labels ...string) []Grade {
	mins := []int{0, 10, 30, 50, 70, 100}
	rarities := []ir.Rarity{ir.Common, ir.Uncommon, ir.Uncommon, ir.Rare, ir.Rare, ir.Legendary}
	out := make([]Grade, len(mins))
	for i := range mins {
		out[i] = Grade{Min: mins[i], Rarity: rarities[i], Label: labels[i]}
	}
	return out
}
