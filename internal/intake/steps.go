package intake

import "morvo-assistant/internal/models"

// TotalSteps is the number shown as "n of TotalSteps" in every prompt. The
// no-website path skips one of them.
const TotalSteps = 8

// step is one slot-filling stage. apply commits the answer into p and reports
// whether it was accepted; it must leave p untouched on rejection.
type step struct {
	id      models.StepID
	number  int
	message string
	options []models.Option
	notice  string
	apply   func(p *models.Profile, answer string) bool
}

var (
	roleOptions = []models.Option{
		{ID: "marketing_manager", Label: "مدير/ة تسويق"},
		{ID: "marketing_specialist", Label: "مختص/ة تسويق"},
		{ID: "business_owner", Label: "مالك/ـة مشروع"},
		{ID: "entrepreneur", Label: "رائد/ة أعمال"},
		{ID: "general_manager", Label: "مدير/ة عام"},
		{ID: "other", Label: "أخرى"},
	}

	companySizeOptions = []models.Option{
		{ID: "solo", Label: "👤 شخص واحد (فريلانسر)"},
		{ID: "2_10", Label: "👥 2–10 موظفين"},
		{ID: "11_50", Label: "🏢 11–50 موظف"},
		{ID: "51_plus", Label: "🏗 51+ موظف"},
	}

	websiteStatusOptions = []models.Option{
		{ID: string(models.WebsiteActive), Label: "✅ نعم – شغّال"},
		{ID: string(models.WebsiteNeedsWork), Label: "🔧 نعم – يحتاج تطوير"},
		{ID: string(models.WebsiteUnderConstruction), Label: "🏗 تحت الإنشاء"},
		{ID: string(models.WebsiteNone), Label: "❌ لا"},
	}

	budgetOptions = []models.Option{
		{ID: "under_5k", Label: "أقل من 5,000 ريال"},
		{ID: "5k_15k", Label: "5,000–15,000 ريال"},
		{ID: "15k_50k", Label: "15,000–50,000 ريال"},
		{ID: "over_50k", Label: "أكثر من 50,000 ريال"},
		{ID: "per_project", Label: "حسب المشروع"},
		{ID: "undecided", Label: "مو محددة"},
	}
)

const choiceNotice = "اختر واحداً من الخيارات بكتابة رقمه أو نصّه."

var steps = []step{
	{
		id:      models.StepName,
		number:  1,
		message: "خلّينا نبدأ بالتعارف… وش اسمك الأول؟",
		notice:  "اسم غير واضح. اكتب اسمك الأول فقط (مثال: سارة، محمد، Laila). تجنب كلمات مثل: ايه، نعم، اوكي.",
		apply: func(p *models.Profile, answer string) bool {
			name, ok := cleanName(answer)
			if ok {
				p.Name = name
			}
			return ok
		},
	},
	{
		id:      models.StepRole,
		number:  2,
		message: "وش دورك في العمل؟",
		options: roleOptions,
		notice:  choiceNotice,
		apply: func(p *models.Profile, answer string) bool {
			opt, ok := matchOption(roleOptions, answer)
			if ok {
				p.Role = opt.ID
			}
			return ok
		},
	},
	{
		id:      models.StepIndustry,
		number:  3,
		message: "نشاط شركتكم إيش؟ (مثال: تجارة إلكترونية، مطاعم، تعليم، تقنية…)",
		notice:  "اكتب نشاط شركتكم بين 3 و100 حرف.",
		apply: func(p *models.Profile, answer string) bool {
			industry, ok := cleanIndustry(answer)
			if ok {
				p.Industry = industry
			}
			return ok
		},
	},
	{
		id:      models.StepCompanySize,
		number:  4,
		message: "كم حجم الشركة؟",
		options: companySizeOptions,
		notice:  choiceNotice,
		apply: func(p *models.Profile, answer string) bool {
			opt, ok := matchOption(companySizeOptions, answer)
			if ok {
				p.CompanySize = opt.ID
			}
			return ok
		},
	},
	{
		id:      models.StepWebsiteStatus,
		number:  5,
		message: "عندكم موقع إلكتروني؟",
		options: websiteStatusOptions,
		notice:  choiceNotice,
		apply: func(p *models.Profile, answer string) bool {
			opt, ok := matchOption(websiteStatusOptions, answer)
			if !ok {
				return false
			}
			p.WebsiteStatus = models.WebsiteStatus(opt.ID)
			if !p.WebsiteStatus.HasWebsite() {
				p.WebsiteURL = ""
			}
			return true
		},
	},
	{
		id:      models.StepWebsiteURL,
		number:  6,
		message: "أرسل رابط الموقع (https://…)",
		notice:  "الرابط غير صالح. مثال: https://example.com",
		apply: func(p *models.Profile, answer string) bool {
			url, ok := cleanURL(answer)
			if ok {
				p.WebsiteURL = url
			}
			return ok
		},
	},
	{
		id:      models.StepGoals,
		number:  7,
		message: "وش أهم أهدافك التسويقية؟ اكتبها مفصولة بفواصل (،). مثال: زيادة الوعي، تحسين التحويلات، ترتيب SEO…",
		notice:  "اكتب هدفاً واحداً على الأقل، وافصل بين الأهداف بفواصل (،).",
		apply: func(p *models.Profile, answer string) bool {
			goals, ok := parseGoals(answer)
			if ok {
				p.Goals = goals
			}
			return ok
		},
	},
	{
		id:      models.StepBudget,
		number:  8,
		message: "كم تقريباً ميزانيتكم الشهرية للتسويق؟",
		options: budgetOptions,
		notice:  choiceNotice,
		apply: func(p *models.Profile, answer string) bool {
			opt, ok := matchOption(budgetOptions, answer)
			if ok {
				p.BudgetRange = opt.ID
			}
			return ok
		},
	},
}

func lookupStep(id models.StepID) (step, bool) {
	for _, s := range steps {
		if s.id == id {
			return s, true
		}
	}
	return step{}, false
}

// nextStep returns the successor of id given the answers committed so far.
// website_url is skipped when the user has no website.
func nextStep(id models.StepID, p *models.Profile) models.StepID {
	for i, s := range steps {
		if s.id != id {
			continue
		}
		if i+1 >= len(steps) {
			return models.StepComplete
		}
		next := steps[i+1].id
		if next == models.StepWebsiteURL && !p.WebsiteStatus.HasWebsite() {
			return models.StepGoals
		}
		return next
	}
	return models.StepComplete
}

func (s step) prompt(notice string) *models.Prompt {
	return &models.Prompt{
		Step:       s.id,
		Message:    s.message,
		Options:    append([]models.Option(nil), s.options...),
		StepNumber: s.number,
		TotalSteps: TotalSteps,
		Notice:     notice,
	}
}
