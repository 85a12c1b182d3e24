package nlp

import (
	"regexp"
	"sync"

	"github.com/MrWong99/lexora/pkg/types"
)

type idiom struct {
	re       *regexp.Regexp
	meaning  string
	category types.Category
}

type idiomSpec struct {
	pattern  string
	meaning  string
	category types.Category
}

var englishIdiomSpecs = []idiomSpec{
	{`piece of cake`, "とても簡単", types.CategoryOther},
	{`break a leg`, "頑張って（幸運を祈る）", types.CategoryOther},
	{`hit the books`, "猛勉強する", types.CategoryOther},
	{`call(?:ed|ing)? it a day`, "今日はここまでにする", types.CategoryOther},
	{`under the weather`, "体調が悪い", types.CategoryOther},
	{`rage[- ]?quit(?:s|ting)?`, "キレてゲームをやめる", types.CategoryGamingExpressions},
	{`clutch play`, "土壇場の好プレー", types.CategoryGamingExpressions},
	{`throw(?:ing|s)? the game|threw the game`, "わざと負ける", types.CategoryGamingExpressions},
	{`stream snip(?:er|ing)`, "配信を見て妨害するプレイヤー", types.CategoryGamingExpressions},
	{`backseat(?:ing| gaming)`, "横から口出しする（指示厨）", types.CategoryGamingExpressions},
	{`skill issue`, "腕の問題（実力不足）", types.CategoryInternetSlang},
	{`touch grass`, "外に出ろ（ネットから離れろ）", types.CategoryInternetSlang},
	{`no cap`, "マジで、嘘じゃなく", types.CategoryInternetSlang},
	{`down bad`, "どん底の状態", types.CategoryInternetSlang},
	{`rent[- ]free`, "頭から離れない", types.CategoryInternetSlang},
	{`crash(?:ing|ed)? out`, "キレる、崩れる", types.CategoryInternetSlang},
	{`main character energy`, "主人公オーラ", types.CategoryInternetSlang},
}

var japaneseIdiomSpecs = []idiomSpec{
	{`さあ[^。！？\n]{0,10}(?:ましょう|しよう|いこう|いきます)`, "let's (do it)!", types.CategoryCommonGrammar},
	{`やばいですね|ヤバいですね`, "that's crazy, isn't it", types.CategoryInternetSlang},
	{`まじですか|マジですか`, "seriously?", types.CategoryInternetSlang},
	{`行く[ぞぜ]ー?|いく[ぞぜ]ー?`, "let's go!", types.CategoryGamingExpressions},
	{`やった[ぜぞ]?ー?`, "I did it!, yay", types.CategoryGamingExpressions},
	{`どうしよう`, "what should I do?", types.CategoryEssentialDaily},
	{`困った(?:な)?`, "I'm in trouble", types.CategoryEssentialDaily},
	{`やっちゃった`, "I messed up", types.CategoryCommonGrammar},
	{`頑張[ろれ]う?|がんば[ろれ]う?`, "let's do our best; go for it", types.CategoryEssentialDaily},
	{`草生える`, "that's hilarious (lit. grass grows)", types.CategoryInternetSlang},
	{`ぽんです`, "I'm being an airhead", types.CategoryVTuberCulture},
}

var compiledIdioms = sync.OnceValue(func() map[types.Language][]idiom {
	build := func(specs []idiomSpec, prefix, suffix string) []idiom {
		out := make([]idiom, len(specs))
		for i, s := range specs {
			out[i] = idiom{
				re:       regexp.MustCompile(prefix + s.pattern + suffix),
				meaning:  s.meaning,
				category: s.category,
			}
		}
		return out
	}
	return map[types.Language][]idiom{
		types.English:  build(englishIdiomSpecs, `(?i)\b(?:`, `)\b`),
		types.Japanese: build(japaneseIdiomSpecs, `(?:`, `)`),
	}
})
