package misc

type Tip struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

func NewTip(text string, category string) *Tip {
	return &Tip{
		Text:     text,
		Category: category,
	}
}
