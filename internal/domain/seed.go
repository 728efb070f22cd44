package domain

import "github.com/google/uuid"

// DefaultCatalog returns the bundled Greek and Latin word elements used to
// seed an empty catalog. IDs are freshly generated per call; the seed is only
// ever inserted into a catalog with zero entries.
func DefaultCatalog() []WordCard {
	card := func(kind, root, origin, meaning string, examples []string, definition, difficulty string, points int, category string) WordCard {
		return WordCard{
			ID:         uuid.NewString(),
			Type:       kind,
			Root:       root,
			Origin:     origin,
			Meaning:    meaning,
			Examples:   examples,
			Definition: definition,
			Difficulty: difficulty,
			Points:     points,
			Category:   category,
		}
	}

	return []WordCard{
		// Greek prefixes
		card("prefix", "anti-", "Greek", "against, opposite",
			[]string{"antifreeze", "antisocial", "anticlimactic"},
			"A prefix meaning against or opposite to something", DifficultyBeginner, 10, "opposition"),
		card("prefix", "auto-", "Greek", "self",
			[]string{"automobile", "automatic", "autobiography"},
			"A prefix meaning self or same", DifficultyBeginner, 10, "self"),
		card("prefix", "bio-", "Greek", "life",
			[]string{"biology", "biography", "biodegradable"},
			"A prefix meaning life or living things", DifficultyIntermediate, 15, "life"),
		card("prefix", "geo-", "Greek", "earth",
			[]string{"geography", "geology", "geometric"},
			"A prefix meaning earth or ground", DifficultyIntermediate, 15, "earth"),
		card("prefix", "micro-", "Greek", "small",
			[]string{"microscope", "microwave", "microphone"},
			"A prefix meaning very small", DifficultyIntermediate, 15, "size"),
		card("prefix", "tele-", "Greek", "far, distant",
			[]string{"telephone", "television", "telescope"},
			"A prefix meaning far away or at a distance", DifficultyBeginner, 10, "distance"),

		// Latin prefixes
		card("prefix", "pre-", "Latin", "before",
			[]string{"preview", "predict", "prepare"},
			"A prefix meaning before in time or place", DifficultyBeginner, 10, "time"),
		card("prefix", "re-", "Latin", "again, back",
			[]string{"return", "rebuild", "recall"},
			"A prefix meaning again or back", DifficultyBeginner, 10, "repetition"),
		card("prefix", "sub-", "Latin", "under, below",
			[]string{"submarine", "subway", "subzero"},
			"A prefix meaning under or below", DifficultyIntermediate, 15, "position"),
		card("prefix", "super-", "Latin", "above, over",
			[]string{"superhero", "superior", "supernatural"},
			"A prefix meaning above or beyond normal", DifficultyIntermediate, 15, "position"),
		card("prefix", "trans-", "Latin", "across, through",
			[]string{"transport", "translate", "transform"},
			"A prefix meaning across or through", DifficultyIntermediate, 15, "movement"),
		card("prefix", "inter-", "Latin", "between, among",
			[]string{"international", "internet", "interview"},
			"A prefix meaning between or among", DifficultyAdvanced, 20, "position"),

		// Greek roots
		card("root", "graph", "Greek", "write, draw",
			[]string{"photograph", "biography", "paragraph"},
			"A root word meaning to write or draw", DifficultyIntermediate, 15, "communication"),
		card("root", "phon", "Greek", "sound",
			[]string{"telephone", "symphony", "microphone"},
			"A root word meaning sound or voice", DifficultyIntermediate, 15, "sound"),
		card("root", "photo", "Greek", "light",
			[]string{"photograph", "photosynthesis", "photocopy"},
			"A root word meaning light", DifficultyIntermediate, 15, "light"),
		card("root", "scope", "Greek", "see, look",
			[]string{"telescope", "microscope", "stethoscope"},
			"A root word meaning to see or examine", DifficultyAdvanced, 20, "vision"),
		card("root", "meter", "Greek", "measure",
			[]string{"thermometer", "speedometer", "kilometer"},
			"A root word meaning to measure", DifficultyAdvanced, 20, "measurement"),

		// Latin roots
		card("root", "port", "Latin", "carry",
			[]string{"transport", "portable", "export"},
			"A root word meaning to carry or bear", DifficultyIntermediate, 15, "movement"),
		card("root", "dict", "Latin", "say, speak",
			[]string{"dictionary", "predict", "contradict"},
			"A root meaning to say or speak", DifficultyIntermediate, 15, "communication"),
		card("root", "spect", "Latin", "look, see",
			[]string{"inspect", "respect", "spectacle"},
			"A root meaning to look or see", DifficultyIntermediate, 15, "vision"),
		card("root", "ject", "Latin", "throw",
			[]string{"project", "reject", "eject"},
			"A root meaning to throw or cast", DifficultyAdvanced, 20, "action"),
		card("root", "struct", "Latin", "build",
			[]string{"construct", "structure", "instruct"},
			"A root meaning to build or arrange", DifficultyAdvanced, 20, "building"),
		card("root", "tract", "Latin", "pull, draw",
			[]string{"attract", "contract", "extract"},
			"A root meaning to pull or draw", DifficultyAdvanced, 20, "movement"),

		// Greek suffixes
		card("suffix", "-ology", "Greek", "study of",
			[]string{"biology", "psychology", "geology"},
			"A suffix meaning the study of something", DifficultyAdvanced, 20, "knowledge"),
		card("suffix", "-phobia", "Greek", "fear of",
			[]string{"claustrophobia", "arachnophobia", "hydrophobia"},
			"A suffix meaning fear or dread of something", DifficultyAdvanced, 20, "emotion"),
		card("suffix", "-ism", "Greek", "belief, condition",
			[]string{"patriotism", "criticism", "heroism"},
			"A suffix indicating a belief, practice, or condition", DifficultyAdvanced, 20, "belief"),

		// Latin suffixes
		card("suffix", "-tion", "Latin", "act, state",
			[]string{"creation", "education", "celebration"},
			"A suffix indicating an action or state", DifficultyIntermediate, 15, "action"),
		card("suffix", "-able", "Latin", "capable of",
			[]string{"readable", "comfortable", "reliable"},
			"A suffix meaning capable of or worthy of", DifficultyBeginner, 10, "ability"),
		card("suffix", "-ment", "Latin", "result, action",
			[]string{"movement", "achievement", "development"},
			"A suffix indicating the result of an action", DifficultyIntermediate, 15, "result"),
		card("suffix", "-ous", "Latin", "full of, having",
			[]string{"dangerous", "famous", "curious"},
			"A suffix meaning full of or characterized by", DifficultyIntermediate, 15, "quality"),
		card("suffix", "-ity", "Latin", "state, quality",
			[]string{"personality", "reality", "creativity"},
			"A suffix indicating a state or quality", DifficultyAdvanced, 20, "quality"),

		card("root", "form", "Latin", "shape",
			[]string{"transform", "uniform", "deform"},
			"A root meaning shape or appearance", DifficultyIntermediate, 15, "shape"),
		card("root", "sens", "Latin", "feel",
			[]string{"sensitive", "nonsense", "sensor"},
			"A root meaning to feel or perceive", DifficultyIntermediate, 15, "feeling"),
	}
}
