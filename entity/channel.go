package entity

// Channel is a Telegram channel the user must be subscribed to before
// downloads are served. Id is the numeric chat id (-100...), Tag is the
// public @name used to build join links.
type Channel struct {
	Id  int64  `yaml:"id" json:"id" validate:"required"`
	Tag string `yaml:"tag" json:"tag" validate:"required"`
}

func (c Channel) Link() string {
	return "https://t.me/" + c.Tag
}
