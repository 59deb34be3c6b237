package handlers

import "math/rand"

var facts = []string{
	"Honey never spoils: sealed pots from ancient tombs were still edible.",
	"Octopuses have three hearts, and two of them stop when the octopus swims.",
	"A day on Venus is longer than a year on Venus.",
	"Bananas are berries, but strawberries are not.",
	"The Eiffel Tower grows about 15 centimeters taller in summer heat.",
	"Sharks existed before trees did.",
	"A group of flamingos is called a flamboyance.",
	"Hot water can freeze faster than cold water under the right conditions.",
}

var compliments = []string{
	"your chat messages make this stream better.",
	"you have excellent taste in streams.",
	"the channel gets brighter every time you show up.",
	"you ask the kind of questions everyone else was afraid to.",
	"your timing in chat is impeccable.",
	"this community is lucky to have you.",
}

func randomFact() string {
	return facts[rand.Intn(len(facts))]
}

func randomCompliment() string {
	return compliments[rand.Intn(len(compliments))]
}
