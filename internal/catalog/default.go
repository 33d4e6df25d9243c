// internal/catalog/default.go
package catalog

import (
	"github.com/jason-s-yu/kingscup/internal/models"
)

var suitNames = map[string]string{
	"S": "Spades",
	"H": "Hearts",
	"D": "Diamonds",
	"C": "Clubs",
}

// rank code -> display name. "0" is the ten so every code stays two characters.
var rankNames = map[string]string{
	"A": "Ace", "2": "Two", "3": "Three", "4": "Four", "5": "Five", "6": "Six", "7": "Seven",
	"8": "Eight", "9": "Nine", "0": "Ten", "J": "Jack", "Q": "Queen", "K": "King",
}

var rankRules = map[string]string{
	"A": "Waterfall: everyone starts drinking and nobody stops before the player before them does.",
	"2": "You: pick someone to drink.",
	"3": "Me: you drink.",
	"4": "Floor: last player to touch the floor drinks.",
	"5": "Guys: every guy drinks.",
	"6": "Chicks: every girl drinks.",
	"7": "Heaven: last player to point to the sky drinks.",
	"8": "Mate: pick a mate who drinks whenever you drink.",
	"9": "Rhyme: say a word, everyone rhymes with it in turn. First to fail drinks.",
	"0": "Categories: pick a category, everyone names something in it in turn. First to fail drinks.",
	"J": "Make a rule: everyone follows it until the game ends.",
	"Q": "Questions: ask someone a question, they answer with a question. First to fail drinks.",
	"K": "King's Cup: pour some of your drink into the cup in the middle.",
}

// Default builds the standard 52 card catalog with a rule for every card.
// Images are referenced as <code>.png, relative to the artwork directory.
func Default() *Catalog {
	suits := []string{"S", "H", "D", "C"}
	ranks := []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "0", "J", "Q", "K"}

	cards := make([]models.Card, 0, len(suits)*len(ranks))
	rules := make(map[string]string, len(suits)*len(ranks))
	for _, suit := range suits {
		for _, rank := range ranks {
			code := rank + suit
			cards = append(cards, models.Card{
				Code:  code,
				Title: rankNames[rank] + " of " + suitNames[suit],
				Image: code + ".png",
			})
			rules[code] = rankRules[rank]
		}
	}

	cat, err := New(cards, rules)
	if err != nil {
		// codes above are fixed and unique
		panic(err)
	}
	return cat
}
