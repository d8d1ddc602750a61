package generator

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

const (
	alphaChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	sampleLength = 10
	// printable ASCII from '!' to '}'
	sampleFirst = '!'
	sampleLast  = '}'
)

var (
	firstNames = []string{
		"John", "Jane", "Alice", "Bob", "Charlie", "Diana", "Eve", "Frank", "Grace", "Henry",
		"Isabel", "Jack", "Karen", "Liam", "Maria", "Noah", "Olivia", "Peter", "Quinn", "Rosa",
		"Samuel", "Tara", "Uma", "Victor", "Wendy", "Xavier", "Yara", "Zane",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez",
		"Hernandez", "Lopez", "Wilson", "Anderson", "Thomas", "Taylor", "Moore", "Jackson", "Martin", "Lee",
		"Thompson", "White", "Harris", "Clark", "Lewis", "Walker", "Young", "O'Connor",
	}
	namePrefixes = []string{"Mr.", "Mrs.", "Ms.", "Dr."}
	nameSuffixes = []string{"Jr.", "Sr.", "II", "III", "PhD"}

	emailDomains = []string{"gmail.com", "yahoo.com", "hotmail.com", "outlook.com", "example.com", "mail.com"}

	phoneFormats = []string{
		"###-###-####",
		"(###) ###-####",
		"1-###-###-####",
		"###.###.####",
		"###-###-#### x###",
	}

	streetNames    = []string{"Main", "Oak", "Pine", "Maple", "Cedar", "Elm", "Washington", "Lake", "Hill", "Park", "Sunset", "River"}
	streetSuffixes = []string{"Street", "Avenue", "Road", "Boulevard", "Lane", "Drive", "Court", "Way"}
	cities         = []string{
		"Springfield", "Riverside", "Franklin", "Greenville", "Bristol", "Clinton", "Fairview", "Salem",
		"Madison", "Georgetown", "Arlington", "Ashland", "Dover", "Oxford", "Jackson", "Burlington",
	}
	states = []string{
		"Alabama", "Alaska", "Arizona", "California", "Colorado", "Florida", "Georgia", "Illinois",
		"Indiana", "Kentucky", "Michigan", "Nevada", "New York", "Ohio", "Oregon", "Texas", "Utah",
		"Vermont", "Virginia", "Washington",
	}
	countries = []string{
		"United States", "Canada", "Mexico", "Brazil", "Argentina", "United Kingdom", "France", "Germany",
		"Spain", "Italy", "Netherlands", "Sweden", "Poland", "India", "Japan", "Australia", "New Zealand",
		"South Africa", "Kenya", "Egypt",
	}

	companySuffixes = []string{"Inc", "LLC", "Group", "and Sons", "Ltd", "Holdings", "Labs"}

	urlWords = []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta", "orbit", "pixel", "harbor", "summit"}
	urlTLDs  = []string{"com", "net", "org", "io", "dev", "info"}
	urlPaths = []string{"about", "blog", "products", "docs", "team", "pricing"}

	loremWords = []string{
		"lorem", "ipsum", "dolor", "sit", "amet", "consectetur", "adipiscing", "elit", "sed", "do",
		"eiusmod", "tempor", "incididunt", "ut", "labore", "et", "dolore", "magna", "aliqua", "enim",
		"ad", "minim", "veniam", "quis", "nostrud", "exercitation", "ullamco", "laboris", "nisi",
		"aliquip", "ex", "ea", "commodo", "consequat", "duis", "aute", "irure", "in", "reprehenderit",
		"voluptate", "velit", "esse", "cillum", "fugiat", "nulla", "pariatur", "excepteur", "sint",
		"occaecat", "cupidatat", "non", "proident", "sunt", "culpa", "qui", "officia", "deserunt",
		"mollit", "anim", "id", "est", "laborum",
	}
)

const (
	textParagraphs   = 3
	minSentences     = 3
	maxSentences     = 6
	minSentenceWords = 4
	maxSentenceWords = 10
)

// The helpers below read g.rng directly; callers hold g.mu or own g.

func (g *Generator) pick(list []string) string {
	return list[g.rng.Intn(len(list))]
}

func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

func (g *Generator) letters(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphaChars[g.rng.Intn(len(alphaChars))]
	}
	return string(b)
}

func (g *Generator) sample(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(sampleFirst + g.rng.Intn(sampleLast-sampleFirst+1))
	}
	return string(b)
}

// digits replaces every '#' in format with a random digit.
func (g *Generator) digits(format string) string {
	b := []byte(format)
	for i, c := range b {
		if c == '#' {
			b[i] = byte('0' + g.rng.Intn(10))
		}
	}
	return string(b)
}

func (g *Generator) generateName() string {
	name := g.pick(firstNames) + " " + g.pick(lastNames)
	switch g.rng.Intn(10) {
	case 0:
		return g.pick(namePrefixes) + " " + name
	case 1:
		return name + " " + g.pick(nameSuffixes)
	}
	return name
}

func (g *Generator) generateEmail() string {
	first := emailPart(g.pick(firstNames))
	last := emailPart(g.pick(lastNames))
	domain := g.pick(emailDomains)

	var local string
	switch g.rng.Intn(3) {
	case 0:
		local = fmt.Sprintf("%s.%s", first, last)
	case 1:
		local = fmt.Sprintf("%s_%s%d", first, last, g.rng.Intn(100))
	default:
		local = fmt.Sprintf("%s%d", first, g.rng.Intn(10000))
	}
	return local + "@" + domain
}

// emailPart keeps letters and digits only.
func emailPart(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func (g *Generator) generatePhone() string {
	return g.digits(g.pick(phoneFormats))
}

func (g *Generator) generateAddress() Address {
	zip := g.digits("#####")
	if g.rng.Intn(4) == 0 {
		zip = g.digits("#####-####")
	}
	return Address{
		Street:  fmt.Sprintf("%d %s %s", g.between(1, 9999), g.pick(streetNames), g.pick(streetSuffixes)),
		City:    g.pick(cities),
		State:   g.pick(states),
		Country: g.pick(countries),
		ZipCode: zip,
	}
}

func (g *Generator) generateCompany() string {
	switch g.rng.Intn(3) {
	case 0:
		return g.pick(lastNames) + "-" + g.pick(lastNames)
	case 1:
		return fmt.Sprintf("%s, %s and %s", g.pick(lastNames), g.pick(lastNames), g.pick(lastNames))
	default:
		return g.pick(lastNames) + " " + g.pick(companySuffixes)
	}
}

func (g *Generator) generateURL() string {
	host := g.pick(urlWords) + "-" + g.pick(urlWords) + "." + g.pick(urlTLDs)
	if g.rng.Intn(2) == 0 {
		return "https://" + host + "/"
	}
	return fmt.Sprintf("https://%s/%s/%d", host, g.pick(urlPaths), g.rng.Intn(1000))
}

func (g *Generator) generateUUID() string {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (g *Generator) generateColor() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", g.rng.Intn(256), g.rng.Intn(256), g.rng.Intn(256))
}

func (g *Generator) generateSentence() string {
	n := g.between(minSentenceWords, maxSentenceWords)
	words := make([]string, n)
	for i := range words {
		words[i] = g.pick(loremWords)
	}
	words[0] = strings.ToUpper(words[0][:1]) + words[0][1:]
	return strings.Join(words, " ") + "."
}

func (g *Generator) generateParagraphs() string {
	paragraphs := make([]string, textParagraphs)
	for i := range paragraphs {
		sentences := make([]string, g.between(minSentences, maxSentences))
		for j := range sentences {
			sentences[j] = g.generateSentence()
		}
		paragraphs[i] = strings.Join(sentences, " ")
	}
	return strings.Join(paragraphs, "\n")
}
