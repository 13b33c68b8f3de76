package router

import "strings"

const (
	welcomeLine = "حياك الله! أنا MORVO 🤝 مستشارتك الذكية للتسويق في السوق السعودي 🇸🇦.\n" +
		"أقدر أساعدك في تحليل الحملات، متابعة سمعة علامتك، تحسين الظهور في قوقل (SEO)، ووضع استراتيجيات تحقق عائد واضح."

	welcomeBack = "أهلاً برجعتك! أنا MORVO 🤝 جاهزة أساعدك. وش حاب نبدأ فيه اليوم؟"

	nudgePrefix = "💡 عشان تكون توصياتي أدق، خلّنا نكمل ملفك: "

	resetConfirm = "⚠️ هل أنت متأكد أنك تريد البدء من جديد؟ اكتب: نعم"
	resetDone    = "🔄 تم إعادة تعيين المحادثة. أهلاً من جديد! ما اسمك؟"
	resetCancel  = "❌ تم إلغاء إعادة التهيئة. نكمل من وين وقفنا 😊"

	noAnswer = "عذراً، ما عندي إجابة لهذا السؤال حالياً. جرّب تسألني عن سمعة علامتك أو أداء منشوراتك أو ظهورك في البحث."
)

var (
	startOverPhrases = set("start over", "restart", "ابدأ من جديد", "إعادة البدء")
	confirmTokens    = set("نعم", "yes", "confirm")
	cancelTokens     = set("لا", "no", "cancel")
	greetingTriggers = set("", "hi", "hello", "ابدأ", "start", "مورفو", "اهلا", "أهلا", "مرحبا")
)

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func in(m map[string]struct{}, s string) bool {
	_, ok := m[s]
	return ok
}
