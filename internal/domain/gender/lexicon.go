package gender

// Embedded Croatian given-name lexicon. The lists only need to carry
// the exceptions the -a suffix rule gets wrong: male names ending in
// -a, female names that do not, and genuinely unisex names.

var maleNames = []string{
	"andrija",
	"borna",
	"ilija",
	"jerko",
	"jura",
	"juraj",
	"luka",
	"matija",
	"mihovil",
	"nikola",
	"noa",
	"toma",
}

var femaleNames = []string{
	"doris",
	"dolores",
	"ines",
	"ingrid",
	"iris",
	"karmen",
	"manon",
	"nives",
	"karolajn",
}

var unisexNames = []string{
	"saša",
	"sasa",
	"vanja",
}
