package trade

import (
	"fmt"
	"strings"

	"jafar/internal/market"
)

// Colloquial names accepted on the command line, mapped to contract symbols.
var instrumentMap = map[string]string{
	"gold":   "MGC",
	"mgc":    "MGC",
	"oltin":  "MGC",
	"zoloto": "MGC",
	"gc":     "GC",
	"oil":    "CL",
	"cl":     "CL",
	"neft":   "CL",
	"s&p":    "ES",
	"es":     "ES",
}

func ResolveInstrument(query string) (string, bool) {
	symbol, ok := instrumentMap[strings.ToLower(strings.TrimSpace(query))]
	return symbol, ok
}

type promptContext struct {
	Instrument    string
	Session       market.Session
	AccountStatus string
	News          string
	Calendar      string
	Memory        string
	PositionSide  string
	PositionSize  int
}

func buildPrompt(pc promptContext) string {
	if pc.PositionSize != 0 {
		return fmt.Sprintf(`**TOIFA:** Ochiq pozitsiyani boshqarish.
**MAQSAD:** `+"`%s`"+` bo'yicha ochiq %s pozitsiyasi (%d kontrakt) uchun keyingi qadamni aniqlash: ushlab turish, qisman yopish yoki to'liq yopish.

**KIRISH MA'LUMOTLARI:**
- **Instrument:** %s
- **Joriy sessiya:** %s
- **Hisob holati:** `+"```%s```"+`
- **Yangiliklar lentasi:** `+"```%s```"+`
- **Iqtisodiy kalendar:** `+"```%s```"+`
- **Xotira (saqlangan darajalar):** `+"```%s```"+`

**CHIQISH FORMATI (FAQAT JSON):** xuddi savdo rejasi formatida, lekin "action" sifatida HOLD, CLOSE yoki qarama-qarshi yo'nalishni qaytar.
**ДИҚҚАТ:** Жавоб ФАҚАТ ва ФАҚАТ JSON форматида бўлиши шарт. Ҳеч қандай изоҳларсиз.`,
			pc.Instrument, pc.PositionSide, pc.PositionSize,
			pc.Instrument, pc.Session, pc.AccountStatus, pc.News, pc.Calendar, pc.Memory)
	}

	return fmt.Sprintf(`**TOIFA:** Savdo tahlili va reja tuzish.
**MAQSAD:** Taqdim etilgan barcha ma'lumotlar (hisob holati, yangiliklar, kalendar, xotira) asosida `+"`%s`"+` uchun savdo rejasini ishlab chiqish.

**KIRISH MA'LUMOTLARI:**
- **Instrument:** %s
- **Joriy sessiya:** %s
- **Hisob holati:** `+"```%s```"+`
- **Yangiliklar lentasi:** `+"```%s```"+`
- **Iqtisodiy kalendar:** `+"```%s```"+`
- **Xotira (saqlangan darajalar):** `+"```%s```"+`

**TOPSHIRIQ:**
Barcha ma'lumotlarni kompleks tahlil qilib, quyidagi formatda YAGONA va TO'LIQ JSON obyektini qaytar.

**CHIQISH FORMATI (FAQAT JSON):**
`+"```json"+`
{
  "full_analysis_uzbek_cyrillic": "To'liq, batafsil tahlil matni: trend, sentiment, asosiy narx darajalari va prognoz ishonchliligi (A, B, C).",
  "trade_data": {
    "action": "BUY",
    "forecast_strength": "B",
    "risk_percent": 5.0,
    "order_type": "LIMIT",
    "entry_price": 2350.5,
    "stop_loss": 2335.0,
    "take_profits": {
      "tp1": 2365.0,
      "tp2": 2380.0
    }
  },
  "voice_summary_uzbek_latin": "Ovozli yordamchi uchun qisqa va tabiiy xulosa."
}
`+"```"+`
**ДИҚҚАТ:** Жавоб ФАҚАТ ва ФАҚАТ JSON форматида бўлиши шарт. Ҳеч қандай изоҳларсиз.`,
		pc.Instrument, pc.Instrument, pc.Session, pc.AccountStatus, pc.News, pc.Calendar, pc.Memory)
}
