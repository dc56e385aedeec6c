// Package dialogue runs lela's scripted onboarding conversation.
//
// The conversation asks for a name, a gender and an age, answering each with
// a canned remark picked by simple rules. Every step blocks on one line of
// input; io.EOF from the reader ends the conversation early and is returned
// unchanged so the caller can shut down cleanly.
package dialogue

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/joestump/lela/internal/console"
	"github.com/joestump/lela/internal/profile"
	"github.com/joestump/lela/internal/prompt"
)

// Dice picks among canned phrasings. *rand.Rand satisfies it.
type Dice interface {
	Intn(n int) int
}

var agePrompts = [...]string{
	"Anyways! Do you mind telling me your age?",
	"So... How old are you?",
	"Hmmm... Okay, so how old are you?",
	"So, if you don't mind me asking. How old are you?",
}

// Engine talks to the user through a console and a line reader.
type Engine struct {
	in     prompt.LineReader
	out    *console.Console
	dice   Dice
	logger *zap.Logger
}

// New returns an Engine. dice decides the age-prompt phrasing.
func New(in prompt.LineReader, out *console.Console, dice Dice, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{in: in, out: out, dice: dice, logger: logger.Named("dialogue")}
}

// Greet welcomes a returning user.
func (e *Engine) Greet(p *profile.Profile) {
	e.out.Say("Hey %s :]", p.Name)
}

// Onboard asks for name, gender and age, filling p as answers arrive.
func (e *Engine) Onboard(ctx context.Context, p *profile.Profile) error {
	e.out.Say("Hey, what's your name?")
	name, err := e.read(ctx)
	if err != nil {
		return err
	}
	p.Name = name

	if remark := NameRemark(name); remark != "" {
		e.out.Say("%s - nice to meet you, %s.", remark, name)
	} else {
		e.out.Say("Nice to meet you, %s.", name)
	}

	e.out.Say("You have a lovely name. Would you mind telling me your gender?")
	gender, err := e.read(ctx)
	if err != nil {
		return err
	}
	p.Gender = strings.ToLower(gender)
	e.out.Say("%s", GenderRemark(p.Gender))

	e.out.Say("%s", AgePrompt(e.dice))
	input, err := e.read(ctx)
	if err != nil {
		return err
	}
	age, ok := profile.ParseAge(input)
	if !ok {
		e.logger.Debug("age coerced", zap.String("input", input), zap.Int("age", age))
	}
	p.Age = age

	remark := AgeRemark(age)
	if age >= 21 && age < 28 {
		e.out.Say("How has your 20s been so far?")
		reply, err := e.read(ctx)
		if err != nil {
			return err
		}
		e.out.Say("%s", TwentiesReply(reply))
	}

	e.out.Say("Anyways...")
	if remark != "" {
		e.out.Say("%d! %s", age, remark)
	} else {
		e.out.Say("%d!", age)
	}
	return nil
}

func (e *Engine) read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.in.ReadLine()
}

// NameRemark comments on short (<=3) and long (>6) names, split on whether
// the first letter falls in the first half of the alphabet. Names of length
// 4 to 6 get no remark.
func NameRemark(name string) string {
	n := utf8.RuneCountInString(name)
	var first rune
	if name != "" {
		first, _ = utf8.DecodeRuneInString(name)
	}
	early := unicode.ToLower(first) <= 'm'

	switch {
	case n <= 3 && early:
		return "Short and sweet"
	case n <= 3:
		return "Short names are easy!"
	case n > 6 && early:
		return "I haven't met anyone with that name before"
	case n > 6:
		return "Well... hello"
	}
	return ""
}

// GenderRemark answers an already lower-cased gender.
func GenderRemark(gender string) string {
	switch gender {
	case "male":
		return "You're a boy!"
	case "female":
		return "You're a girl!"
	}
	return "I've never met anyone that identifies as a " + gender + " before"
}

// AgePrompt picks a phrasing: the first of Intn(3), Intn(4), Intn(5) to
// roll zero wins, otherwise the last phrasing is used.
func AgePrompt(d Dice) string {
	for i, sides := range []int{3, 4, 5} {
		if d.Intn(sides) == 0 {
			return agePrompts[i]
		}
	}
	return agePrompts[len(agePrompts)-1]
}

// AgeRemark returns the closing remark for age, or "" for 40 and over.
func AgeRemark(age int) string {
	switch {
	case age < 15:
		return "You'll be driving soon! ;]"
	case age < 18:
		return "Some of the best life experiences happen around your age"
	case age < 21:
		return "You're almost at a legal drinking age in the US."
	case age < 28:
		return "What an age to be..."
	case age < 40:
		return "Isn't life precious?"
	}
	return ""
}

// TwentiesReply answers "How has your 20s been so far?".
func TwentiesReply(reply string) string {
	reply = strings.ToLower(reply)
	switch {
	case strings.Contains(reply, "good"):
		return "I bet it has been good!"
	case strings.Contains(reply, "awesome"):
		return "Awesome you say!? Haha, that's great."
	}
	return "Well, okay. I'd love to hear more someday."
}
