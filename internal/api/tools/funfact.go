package tools

import (
	"fmt"
	"strings"
)

var funFacts = map[string]string{
	"eiffel tower":        "The Eiffel Tower can be 15 cm taller during the summer due to thermal expansion of the iron.",
	"paris":               "Paris was originally a Roman city called Lutetia.",
	"louvre museum":       "The Louvre Museum is so large that if you spent just 30 seconds looking at each piece of art, it would take you about 200 days to see everything.",
	"statue of liberty":   "The Statue of Liberty's outer layer is made of copper, and it's only about as thick as two pennies put together (2.4mm).",
	"great wall of china": "The Great Wall of China is not a single continuous wall but a series of fortifications.",
}

// FunFact returns the curated fact for topic, or a generic sentence naming the topic verbatim.
func FunFact(topic string) string {
	if fact, ok := funFacts[strings.ToLower(topic)]; ok {
		return fact
	}
	return fmt.Sprintf("One interesting (but perhaps not widely known) detail about %s is its unique connection to local traditions and history.", topic)
}
