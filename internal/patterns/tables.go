package patterns

import (
	"sync"

	"github.com/MrWong99/lexora/pkg/types"
)

// DefaultVersion is the version of the built-in rule table. Bump it whenever
// a rule is added, removed or changed.
const DefaultVersion = "2025.3"

var defaultRules = sync.OnceValue(func() *RuleSet {
	return MustNewRuleSet(DefaultVersion, append(japaneseGroups(), englishGroups()...))
})

// Default returns the built-in rule set. It is compiled on first use.
func Default() *RuleSet { return defaultRules() }

func japaneseGroups() []Group {
	return []Group{
		{
			Language: types.Japanese,
			Category: types.CategoryVTuberCulture,
			Tags:     []string{"vtuber_slang"},
			Rules: []Rule{
				{Pattern: `てぇてぇ|てえてえ|尊い`, Meaning: "precious, wholesome (about an adorable interaction)", Reading: "てぇてぇ", Level: types.N2, Priority: 8},
				{Pattern: `ぽんこつ|ポンコツ`, Meaning: "clumsy, airheaded (affectionate)", Reading: "ぽんこつ", Level: types.N3, Priority: 7},
				{Pattern: `あせあせ|汗汗`, Meaning: "nervous, sweating", Reading: "あせあせ", Level: types.N3, Priority: 6},
				{Pattern: `おつかれ(?:さま|様)?|お疲れ(?:さま|様)?`, Meaning: "good work; bye (end of stream)", Reading: "おつかれ", Level: types.N4, Priority: 7},
				{Pattern: `スパチャ|スーパーチャット`, Meaning: "super chat (paid highlighted message)", Reading: "すぱちゃ", Level: types.N3, Priority: 7},
				{Pattern: `初見(?:さん)?`, Meaning: "first-time viewer", Reading: "しょけん", Level: types.N2, Priority: 6},
				{Pattern: `切り抜き`, Meaning: "stream clip", Reading: "きりぬき", Level: types.N2, Priority: 6},
				{Pattern: `配信`, Meaning: "(live) stream, broadcast", Reading: "はいしん", Level: types.N3, Priority: 6},
				{Pattern: `推し`, Meaning: "favourite (idol or streamer)", Reading: "おし", Level: types.N3, Priority: 7},
			},
		},
		{
			Language: types.Japanese,
			Category: types.CategoryInternetSlang,
			Tags:     []string{"internet_slang"},
			Rules: []Rule{
				{Pattern: `草+|くさ|[wｗ]{3,}|（笑）|\(笑\)`, Meaning: "lol, laughing", Level: types.N3, Priority: 6},
				{Pattern: `おｋ|おけ(?:まる)?`, Meaning: "okay", Level: types.N4, Priority: 5},
				{Pattern: `了解|りょうかい`, Meaning: "roger, understood", Reading: "りょうかい", Level: types.N3, Priority: 6},
				{Pattern: `乙`, Meaning: "thanks for the work (short for otsukare)", Reading: "おつ", Level: types.N2, Priority: 5},
				{Pattern: `ワンチャン`, Meaning: "maybe, there's a chance", Reading: "わんちゃん", Level: types.N2, Priority: 5},
				{Pattern: `やばい|ヤバい|ヤバイ`, Meaning: "crazy, amazing, terrible", Reading: "やばい", Level: types.N3, Priority: 6},
				{Pattern: `まじ(?:で)?|マジ(?:で)?`, Meaning: "seriously, for real", Reading: "まじ", Level: types.N3, Priority: 6},
			},
		},
		{
			Language: types.Japanese,
			Category: types.CategoryGamingExpressions,
			Tags:     []string{"gaming"},
			Rules: []Rule{
				{Pattern: `ナイス`, Meaning: "nice (play)", Reading: "ないす", Level: types.N4, Priority: 6},
				{Pattern: `ファイト`, Meaning: "fight!, you can do it", Reading: "ふぁいと", Level: types.N4, Priority: 5},
				{Pattern: `ドンマイ`, Meaning: "don't worry about it", Reading: "どんまい", Level: types.N3, Priority: 6},
			},
		},
		{
			Language: types.Japanese,
			Category: types.CategoryCommonGrammar,
			Tags:     []string{"grammar_pattern"},
			Rules: []Rule{
				{Pattern: `[ぁ-ん]+なきゃ`, Meaning: "must do (casual)", Level: types.N3, Priority: 7},
				{Pattern: `[ぁ-ん]+ちゃう`, Meaning: "end up doing (casual contraction of てしまう)", Level: types.N3, Priority: 7},
				{Pattern: `[ぁ-ん]+っぽい`, Meaning: "seems like, -ish", Level: types.N3, Priority: 6},
				{Pattern: `[ぁ-ん]+かも(?:しれない|しれません)?`, Meaning: "maybe, might", Level: types.N4, Priority: 6},
			},
		},
		{
			Language: types.Japanese,
			Category: types.CategoryEssentialDaily,
			Rules: []Rule{
				{Pattern: `ありがとう(?:ございます|ございました)?`, Meaning: "thank you", Reading: "ありがとう", Level: types.N5, Priority: 9},
				{Pattern: `すみません|ごめんなさい`, Meaning: "excuse me; sorry", Level: types.N5, Priority: 9},
				{Pattern: `こんにちは|こんばんは|おはよう(?:ございます)?`, Meaning: "hello; good evening; good morning", Level: types.N5, Priority: 8},
				{Pattern: `すご[いく]|凄[いく]`, Meaning: "amazing; amazingly", Reading: "すごい", Level: types.N4, Priority: 7},
				{Pattern: `大丈夫`, Meaning: "okay, all right", Reading: "だいじょうぶ", Level: types.N4, Priority: 8},
				{Pattern: `また(?:ね|明日)`, Meaning: "see you (tomorrow)", Level: types.N5, Priority: 7},
			},
		},
		{
			Language: types.Japanese,
			Category: types.CategoryPoliteExpressions,
			Tags:     []string{"keigo"},
			Rules: []Rule{
				{Pattern: `よろしくお願い(?:します|いたします)`, Meaning: "I look forward to working with you; please treat me well", Reading: "よろしくおねがいします", Level: types.N4, Priority: 9},
				{Pattern: `失礼(?:します|しました|いたします)`, Meaning: "excuse me (entering/leaving)", Reading: "しつれいします", Level: types.N4, Priority: 8},
				{Pattern: `お疲れ様でした`, Meaning: "thank you for your hard work", Reading: "おつかれさまでした", Level: types.N4, Priority: 9},
				{Pattern: `いらっしゃいませ`, Meaning: "welcome (to a shop)", Reading: "いらっしゃいませ", Level: types.N4, Priority: 7},
			},
		},
	}
}

func englishGroups() []Group {
	return []Group{
		{
			Language: types.English,
			Category: types.CategoryEssentialDaily,
			Rules: []Rule{
				{Pattern: `thank you|thanks(?:\s+(?:so\s+much|a\s+lot))?`, Meaning: "ありがとう（ございます）", Level: types.A1, Priority: 10},
				{Pattern: `(?:i'm\s+|i\s+am\s+)?sorry`, Meaning: "すみません／ごめんなさい", Level: types.A1, Priority: 10},
				{Pattern: `excuse me`, Meaning: "すみません", Level: types.A1, Priority: 10},
				{Pattern: `please`, Meaning: "お願いします", Level: types.A1, Priority: 10},
				{Pattern: `(?:you're\s+)?welcome`, Meaning: "どういたしまして", Level: types.A1, Priority: 10},
				{Pattern: `(?:i\s+)?don't\s+know`, Meaning: "わかりません", Level: types.A1, Priority: 9},
				{Pattern: `of course`, Meaning: "もちろん", Level: types.A2, Priority: 9},
				{Pattern: `no problem`, Meaning: "問題ありません", Level: types.A2, Priority: 9},
			},
		},
		{
			Language: types.English,
			Category: types.CategoryGamingExpressions,
			Tags:     []string{"gaming"},
			Rules: []Rule{
				{Pattern: `let[’']s\s+go`, Meaning: "行くぞ！／よし！", Level: types.A2, Priority: 8},
				{Pattern: `good\s+(?:game|job)|gg`, Meaning: "お疲れ様／ナイスゲーム", Level: types.A2, Priority: 8},
				{Pattern: `(?:that's\s+)?insane`, Meaning: "やばい！／すごい！", Level: types.B1, Priority: 7},
				{Pattern: `clutch`, Meaning: "クラッチ（土壇場での活躍）", Level: types.B2, Priority: 6},
				{Pattern: `(?:i'm\s+)?dead`, Meaning: "死んだ／やられた", Level: types.A2, Priority: 7},
				{Pattern: `one\s+more\s+(?:time|game)`, Meaning: "もう一回", Level: types.A2, Priority: 8},
				{Pattern: `nice\s+(?:play|shot|try)`, Meaning: "ナイスプレイ", Level: types.A2, Priority: 8},
			},
		},
		{
			Language: types.English,
			Category: types.CategoryInternetSlang,
			Tags:     []string{"internet_slang"},
			Rules: []Rule{
				{Pattern: `lol|lmao`, Meaning: "（笑）／www", Level: types.A2, Priority: 6},
				{Pattern: `omg`, Meaning: "まじで／やばい", Level: types.A2, Priority: 7},
				{Pattern: `bruh`, Meaning: "おいおい／まじかよ", Level: types.B1, Priority: 5},
				{Pattern: `based`, Meaning: "いいね／正論／最高", Level: types.B2, Priority: 5},
				{Pattern: `pog(?:gers)?`, Meaning: "すごい！／最高！", Level: types.B1, Priority: 6},
				{Pattern: `cringe`, Meaning: "痛い／恥ずかしい", Level: types.B1, Priority: 6},
				{Pattern: `copium|hopium`, Meaning: "現実逃避の慰め／根拠のない希望", Level: types.B2, Priority: 5},
			},
		},
		{
			Language: types.English,
			Category: types.CategoryPhrasalVerbs,
			Tags:     []string{"phrasal_verb"},
			Rules: []Rule{
				{Pattern: `check(?:s|ed|ing)?\s+(?:it\s+|this\s+)?out`, Meaning: "見てみる、チェックする", Level: types.A2, Priority: 7},
				{Pattern: `figur(?:e|es|ed|ing)\s+(?:it\s+)?out`, Meaning: "理解する、解決する", Level: types.B1, Priority: 7},
				{Pattern: `find(?:s|ing)?\s+out|found\s+out`, Meaning: "知る、気づく", Level: types.A2, Priority: 7},
				{Pattern: `giv(?:e|es|ing)\s+up|gave\s+up`, Meaning: "あきらめる", Level: types.A2, Priority: 7},
				{Pattern: `look(?:s|ed|ing)?\s+forward\s+to`, Meaning: "楽しみにする", Level: types.B1, Priority: 7},
				{Pattern: `hang(?:s|ing)?\s+out|hung\s+out`, Meaning: "一緒に過ごす、遊ぶ", Level: types.A2, Priority: 6},
				{Pattern: `pick(?:s|ed|ing)?\s+up`, Meaning: "拾う、取りに行く", Level: types.A2, Priority: 6},
				{Pattern: `show(?:s|ed|ing)?\s+up`, Meaning: "現れる", Level: types.B1, Priority: 6},
				{Pattern: `set(?:s|ting)?\s+up`, Meaning: "準備する、設定する", Level: types.B1, Priority: 6},
				{Pattern: `run(?:s|ning)?\s+out\s+of|ran\s+out\s+of`, Meaning: "使い果たす", Level: types.B1, Priority: 6},
				{Pattern: `log(?:s|ged|ging)?\s+(?:in|on|off|out)`, Meaning: "ログイン／ログアウトする", Level: types.A2, Priority: 6},
				{Pattern: `come\s+on`, Meaning: "さあ／頑張れ／おいおい", Level: types.A2, Priority: 6},
				{Pattern: `mess(?:es|ed|ing)?\s+up`, Meaning: "失敗する、台無しにする", Level: types.B1, Priority: 6},
				{Pattern: `keep(?:s|ing)?\s+up|kept\s+up`, Meaning: "続ける、ついていく", Level: types.B1, Priority: 6},
			},
		},
		{
			Language: types.English,
			Category: types.CategoryPoliteExpressions,
			Tags:     []string{"polite"},
			Rules: []Rule{
				{Pattern: `nice\s+to\s+meet\s+you`, Meaning: "はじめまして、よろしく", Level: types.A1, Priority: 9},
				{Pattern: `could\s+you\s+please`, Meaning: "〜していただけますか", Level: types.A2, Priority: 8},
				{Pattern: `would\s+you\s+mind`, Meaning: "〜してもよろしいですか", Level: types.B1, Priority: 8},
			},
		},
		{
			Language: types.English,
			Category: types.CategoryCommonGrammar,
			Tags:     []string{"casual_contraction"},
			Rules: []Rule{
				{Pattern: `gonna|gotta|wanna`, Meaning: "〜するつもり／〜しなきゃ／〜したい（口語）", Level: types.B1, Priority: 6},
				{Pattern: `used\s+to`, Meaning: "以前は〜していた", Level: types.A2, Priority: 7},
			},
		},
	}
}
