package nlp

// particles that turn a verb into a phrasal verb.
var phrasalParticles = set(
	"up", "down", "in", "out", "on", "off", "over", "under", "away", "back",
	"through", "along", "across", "by", "forward", "around", "about",
)

// skipWords are high-frequency verbs, adjectives and greetings that carry
// too little learning value to anchor a collocation on their own.
var skipWords = set(
	"be", "have", "do", "say", "go", "get", "make", "know", "think", "take",
	"see", "come", "want", "look", "use", "find", "give", "tell", "work",
	"call", "try", "ask", "need", "feel", "become", "leave", "put", "mean",
	"keep", "let",
	"good", "new", "first", "last", "long", "great", "little", "own", "other",
	"old", "right", "big", "high", "different", "small", "large", "next",
	"early",
	"yes", "no", "thank", "thanks", "sorry", "hello", "hi", "bye", "please",
)

// stopWords never count as meaningful tokens.
var stopWords = set(
	"a", "an", "the", "this", "that", "these", "those",
	"i", "me", "my", "you", "your", "he", "him", "his", "she", "her", "it",
	"its", "we", "us", "our", "they", "them", "their",
	"is", "am", "are", "was", "were", "been", "being",
	"and", "or", "but", "so", "to", "of", "at", "for", "with",
	"'s", "'re", "'m", "n't",
	"する", "いる", "ある", "なる", "こと", "もの", "これ", "それ", "あれ", "ここ", "そこ",
)

// determiners stripped from the start of a collocation.
var leadingDeterminers = set("the", "a", "an", "this", "that", "these", "those", "my", "your", "our", "their")

// gamingKeywords raise the priority of candidates that mention them.
var gamingKeywords = set("game", "stream", "play", "boss", "level", "match", "chat", "team", "rank", "raid")

// teFormAuxiliaries are the subsidiary verbs recognised after a て-form.
var teFormAuxiliaries = map[string]string{
	"いる":  "ongoing action or resulting state (-te iru)",
	"いく":  "action moving away or continuing into the future (-te iku)",
	"くる":  "action coming toward the speaker or starting (-te kuru)",
	"しまう": "completion or regret (-te shimau)",
	"みる":  "try doing (-te miru)",
	"おく":  "do in advance (-te oku)",
}

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

func in(m map[string]struct{}, w string) bool {
	_, ok := m[w]
	return ok
}
