package difficulty

import (
	"strings"

	"github.com/MrWong99/lexora/pkg/types"
)

// coreEnglish is a compact CEFR reference for everyday, streaming and gaming
// vocabulary. Larger lists are loaded with [LoadFile].
var coreEnglish = map[string]types.Level{
	// A1
	"hello": types.A1, "hi": types.A1, "thanks": types.A1, "thank you": types.A1,
	"please": types.A1, "sorry": types.A1, "yes": types.A1, "no": types.A1,
	"good": types.A1, "bad": types.A1, "happy": types.A1, "game": types.A1,
	"play": types.A1, "friend": types.A1, "like": types.A1, "love": types.A1,
	"eat": types.A1, "drink": types.A1, "go": types.A1, "come": types.A1,
	"see": types.A1, "look": types.A1, "big": types.A1, "small": types.A1,
	"new": types.A1, "old": types.A1, "today": types.A1, "tomorrow": types.A1,
	"morning": types.A1, "night": types.A1, "name": types.A1, "time": types.A1,
	"day": types.A1, "cat": types.A1, "dog": types.A1, "house": types.A1,
	"school": types.A1, "book": types.A1, "music": types.A1, "family": types.A1,
	"water": types.A1, "food": types.A1, "welcome": types.A1, "nice": types.A1,
	"fun": types.A1, "good morning": types.A1, "good night": types.A1, "see you": types.A1,

	// A2
	"excuse me": types.A2, "of course": types.A2, "no problem": types.A2,
	"win": types.A2, "lose": types.A2, "team": types.A2, "level": types.A2,
	"chat": types.A2, "weekend": types.A2, "practice": types.A2, "easy": types.A2,
	"difficult": types.A2, "funny": types.A2, "favorite": types.A2, "check out": types.A2,
	"find out": types.A2, "pick up": types.A2, "give up": types.A2, "wake up": types.A2,
	"hang out": types.A2, "let's go": types.A2, "come on": types.A2, "log in": types.A2,
	"lol": types.A2, "omg": types.A2, "gg": types.A2, "good game": types.A2,
	"boss": types.A2, "stream": types.A2, "video": types.A2, "watch": types.A2,
	"tired": types.A2, "hungry": types.A2, "scary": types.A2, "cute": types.A2,

	// B1
	"figure out": types.B1, "show up": types.B1, "set up": types.B1, "run out of": types.B1,
	"look forward to": types.B1, "used to": types.B1, "gonna": types.B1, "wanna": types.B1,
	"gotta": types.B1, "strategy": types.B1, "opponent": types.B1, "achievement": types.B1,
	"subscribe": types.B1, "channel": types.B1, "challenge": types.B1, "awesome": types.B1,
	"insane": types.B1, "cringe": types.B1, "bruh": types.B1, "piece of cake": types.B1,
	"nice to meet you": types.B1, "could you please": types.B1, "boss fight": types.B1,
	"audience": types.B1, "comment": types.B1, "donation": types.B1, "tournament": types.B1,
	"nervous": types.B1, "exciting": types.B1, "lucky": types.B1, "mess up": types.B1,

	// B2
	"keep up": types.B2, "clutch": types.B2, "based": types.B2, "pog": types.B2,
	"skill issue": types.B2, "break a leg": types.B2, "under the weather": types.B2,
	"hit the books": types.B2, "call it a day": types.B2, "backseat gaming": types.B2,
	"would you mind": types.B2, "throw the game": types.B2, "rage quit": types.B2,
	"consistent": types.B2, "overwhelming": types.B2, "hilarious": types.B2,
	"sponsor": types.B2, "collaboration": types.B2, "speedrun": types.B2,

	// C1
	"touch grass": types.C1, "no cap": types.C1, "rent free": types.C1,
	"main character energy": types.C1, "down bad": types.C1, "copium": types.C1,
	"hopium": types.C1, "stream sniping": types.C1, "meticulous": types.C1,
	"unprecedented": types.C1, "nonchalant": types.C1,

	// C2
	"serendipity": types.C2, "quintessential": types.C2, "ubiquitous": types.C2,
}

// coreJapanese is a compact JLPT reference keyed by surface form. Entries with
// a reading are also reachable through their hiragana spelling.
var coreJapanese = []jaEntry{
	// N5
	{"ありがとう", "", types.N5}, {"すみません", "", types.N5}, {"こんにちは", "", types.N5},
	{"おはよう", "", types.N5}, {"こんばんは", "", types.N5}, {"さようなら", "", types.N5},
	{"はい", "", types.N5}, {"いいえ", "", types.N5}, {"食べる", "たべる", types.N5},
	{"飲む", "のむ", types.N5}, {"行く", "いく", types.N5}, {"来る", "くる", types.N5},
	{"見る", "みる", types.N5}, {"好き", "すき", types.N5}, {"今日", "きょう", types.N5},
	{"明日", "あした", types.N5}, {"友達", "ともだち", types.N5}, {"先生", "せんせい", types.N5},
	{"学生", "がくせい", types.N5}, {"ゲーム", "", types.N5}, {"面白い", "おもしろい", types.N5},
	{"楽しい", "たのしい", types.N5}, {"大きい", "おおきい", types.N5}, {"小さい", "ちいさい", types.N5},
	{"新しい", "あたらしい", types.N5}, {"日本語", "にほんご", types.N5}, {"英語", "えいご", types.N5},
	{"時間", "じかん", types.N5}, {"映画", "えいが", types.N5}, {"音楽", "おんがく", types.N5},
	{"お願いします", "おねがいします", types.N5}, {"またね", "", types.N5}, {"ごめんなさい", "", types.N5},

	// N4
	{"頑張る", "がんばる", types.N4}, {"始める", "はじめる", types.N4}, {"終わる", "おわる", types.N4},
	{"急ぐ", "いそぐ", types.N4}, {"困る", "こまる", types.N4}, {"失礼", "しつれい", types.N4},
	{"大丈夫", "だいじょうぶ", types.N4}, {"本当", "ほんとう", types.N4}, {"すごい", "", types.N4},
	{"練習", "れんしゅう", types.N4}, {"最近", "さいきん", types.N4}, {"試合", "しあい", types.N4},
	{"負ける", "まける", types.N4}, {"勝つ", "かつ", types.N4}, {"心配", "しんぱい", types.N4},
	{"お疲れ様", "おつかれさま", types.N4}, {"いらっしゃいませ", "", types.N4}, {"ナイス", "", types.N4},

	// N3
	{"応援", "おうえん", types.N3}, {"やばい", "", types.N3}, {"まじ", "", types.N3},
	{"了解", "りょうかい", types.N3}, {"準備", "じゅんび", types.N3}, {"最高", "さいこう", types.N3},
	{"攻撃", "こうげき", types.N3}, {"参加", "さんか", types.N3}, {"挑戦", "ちょうせん", types.N3},
	{"ドンマイ", "", types.N3}, {"東京タワー", "とうきょうたわー", types.N3},

	// N2
	{"配信", "はいしん", types.N2}, {"視聴者", "しちょうしゃ", types.N2}, {"実況", "じっきょう", types.N2},
	{"雑談", "ざつだん", types.N2}, {"初見", "しょけん", types.N2}, {"推し", "おし", types.N2},
	{"ぽんこつ", "", types.N2}, {"草", "くさ", types.N2}, {"ワンチャン", "", types.N2},
	{"てぇてぇ", "", types.N2},

	// N1
	{"尊い", "とうとい", types.N1}, {"醍醐味", "だいごみ", types.N1}, {"臨場感", "りんじょうかん", types.N1},
	{"切り抜き", "きりぬき", types.N1},
}

type jaEntry struct {
	surface string
	reading string
	level   types.Level
}

// frequencyRanked lists common English words from most to least frequent.
// Position in the list is the word's rank.
var frequencyRanked = strings.Fields(`
the be to of and a in that have i it for not on with he as you do at this but
his by from they we say her she or an will my one all would there their what so
up out if about who get which go me when make can like time no just him know take
people into year your good some could them see other than then now look only come
its over think also back after use two how our work first well way even new want
because any these give day most us is was are were been has had did said made got
went thing very really right here still should need feel try leave call ask mean
keep let begin seem help talk turn start show hear play run move live believe hold
bring happen write provide sit stand lose pay meet include continue set learn change
lead understand watch follow stop create speak read allow add spend grow open walk
win offer remember love consider appear buy wait serve die send expect build stay
fall cut reach kill remain suggest raise pass sell require report decide pull
game team stream chat friend fun boss level play win match video music week night
home school family world life hand part place case point group problem fact eye
`)
