package domain

import "strings"

// DefaultRefusal is the reply to messages outside the configured topics.
const DefaultRefusal = "Sorry, please ask something related to martial arts."

// TroubleReply is shown when the LLM fails to answer a chat message.
const TroubleReply = "Sorry, I am having trouble understanding you right now."

// DefaultTopicKeywords returns the keywords that put a chat message on topic.
func DefaultTopicKeywords() []string {
	return []string{
		"martial arts", "karate", "judo", "taekwondo", "kickboxing", "kung fu",
		"jiu jitsu", "self-defense", "self defence", "grappling", "sparring",
		"muay thai", "wrestling", "boxing", "dojo", "kata", "fight", "fit", "build",
		"aikido", "kendo", "capoeira", "sambo", "hapkido", "krav maga", "silat",
		"jeet kune do", "wing chun", "eskrima", "arnis", "kali", "mma",
		"ninjutsu", "savate", "sanda", "kyokushin", "iaido", "kenjutsu", "sumo",
		"tai chi", "taichi", "wushu", "bjj", "k1", "luta livre", "vale tudo",
		"kalaripayattu", "throws", "locks", "strikes", "kicks", "punches",
		"pressure points", "chi", "qi", "zen", "budo", "belt", "dan ranking",
		"combat sports", "knife defense", "weapon training", "bo staff",
		"nunchaku", "sword fighting", "tournament", "bruce lee", "chuck norris",
		"jackie chan", "jet li", "donnie yen", "speed bag", "focus mitts",
		"heavy bag", "pad work", "bag work", "shadow boxing", "breakfalls",
		"flexibility training", "strength training", "cardio", "endurance",
		"mental toughness", "meditation", "injury prevention", "training camp",
		"de-escalation", "personal safety", "conflict resolution",
	}
}

// TopicGuard decides whether a message is on topic by keyword match.
// A guard with no keywords accepts every message.
type TopicGuard struct {
	keywords []string
	refusal  string
}

// NewTopicGuard creates a guard. Keywords are matched case-insensitively
// as substrings. An empty refusal falls back to DefaultRefusal.
func NewTopicGuard(keywords []string, refusal string) *TopicGuard {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			lowered = append(lowered, k)
		}
	}
	if refusal == "" {
		refusal = DefaultRefusal
	}
	return &TopicGuard{keywords: lowered, refusal: refusal}
}

// Allows reports whether message mentions any keyword.
func (g *TopicGuard) Allows(message string) bool {
	if len(g.keywords) == 0 {
		return true
	}
	message = strings.ToLower(message)
	for _, k := range g.keywords {
		if strings.Contains(message, k) {
			return true
		}
	}
	return false
}

// Refusal returns the reply for off-topic messages.
func (g *TopicGuard) Refusal() string {
	return g.refusal
}
