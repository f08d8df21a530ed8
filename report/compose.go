package report

import (
	"strings"
	"time"

	"github.com/georgepadayatti/digestpdf/pdf/layout"
	"github.com/georgepadayatti/digestpdf/pdf/text"
)

// Composition constants
const (
	introSize         = 12.5
	introSpacing      = 18.0
	introFinalSpacing = 24.0
	summarySpacing    = 12.0
	itemSpacing       = 6.0

	datePlaceholder = "{date}"
	dateLayout      = "02.01.2006"
)

// Compose renders the report tree onto the layout engine: title heading,
// intro paragraphs, then per group and item the headings, summary, and
// labeled bullet sections.
func Compose(engine *layout.Engine, r *Report) {
	date := r.Date
	if date == "" {
		date = time.Now().Format(dateLayout)
	}

	engine.AddHeading(r.Title, 1)

	for i, intro := range r.Intro {
		p := text.NewBody(strings.ReplaceAll(intro, datePlaceholder, date))
		p.Size = introSize
		p.SpaceAfter = introSpacing
		if i == len(r.Intro)-1 {
			p.SpaceAfter = introFinalSpacing
		}
		engine.AddParagraph(p)
	}

	for _, group := range r.Groups {
		engine.AddHeading(group.Title, 2)
		for _, item := range group.Items {
			engine.AddHeading(item.Title, 3)

			summary := text.NewBody(item.Summary)
			summary.SpaceAfter = summarySpacing
			engine.AddParagraph(summary)

			for _, section := range item.Sections {
				engine.AddLabel(section.Label)
				engine.AddBulletList(section.Bullets)
			}
			engine.AddSpacing(itemSpacing)
		}
	}
}
