package utils

import "strings"

// Canned replies keyed by message keywords, used when every provider is
// unavailable. The tone suffix from the emotion analyzer picks the flavor;
// it never changes which reply group matches.
var demoReplies = []struct {
	stems []string
	text  string
}{
	{
		stems: []string{"привет", "здравствуй", "добрый", "hello", "hi"},
		text:  "Привет! Я помогу с картинками, поиском и просто поговорить.",
	},
	{
		stems: []string{"кто ты", "что ты умеешь", "who are you", "what can you"},
		text:  "Я — творческий ассистент: рисую, редактирую, векторизую и ищу информацию.",
	},
	{
		stems: []string{"нарису", "картин", "изображен", "draw", "picture"},
		text:  "Могу нарисовать это, когда генератор снова будет на связи.",
	},
	{
		stems: []string{"спасибо", "thank"},
		text:  "Всегда пожалуйста!",
	},
}

const demoDefault = "Извини, сейчас я отвечаю в упрощённом режиме. Попробуй ещё раз чуть позже."

// DemoResponse is the deterministic offline reply: a keyword-keyed canned
// answer, flavored by the overall tone.
func DemoResponse(message, tone string) string {
	lower := strings.ToLower(message)
	reply := demoDefault
	for _, r := range demoReplies {
		matched := false
		for _, s := range r.stems {
			if strings.Contains(lower, s) {
				matched = true
				break
			}
		}
		if matched {
			reply = r.text
			break
		}
	}

	switch {
	case strings.HasSuffix(tone, "_excited") || tone == "excited":
		return reply + " 🎉"
	case strings.HasSuffix(tone, "_intense") || tone == "angry_or_excited":
		return reply + " Я на связи, не переживай."
	case tone == "sadness" || tone == "thoughtful_or_sad":
		return reply + " Если что-то не так — расскажи."
	}
	return reply
}
