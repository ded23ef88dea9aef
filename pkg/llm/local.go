package llm

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// LocalModelName is the model label recorded for locally synthesized output.
const LocalModelName = "local-stub"

var localTemplates = []string{
	"{topic} - my take as someone who follows {interest}.",
	"Watching {topic} unfold. {reaction}",
	"Hot take: {topic}. #thoughts",
	"Just saw: {topic}. {reaction}",
	"Breaking: {topic}. This matters for {interest} watchers.",
	"{reaction} Can't ignore {topic} today.",
	"Thread on {topic}: {reaction}",
	"Quick thought on {topic} from a {interest} perspective.",
}

var localReactions = []string{
	"Interesting development.",
	"This changes things.",
	"Worth watching.",
	"Big if true.",
	"Not surprised.",
	"Didn't see that coming.",
	"Here we go again.",
	"Important context needed.",
}

// LocalProvider synthesizes plausible short posts from persona traits without
// any network dependency. It is the terminal fallback in every provider chain,
// so it never returns an error.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider { return &LocalProvider{} }

func (p *LocalProvider) Name() string { return LocalModelName }

func (p *LocalProvider) Generate(_ context.Context, req Request) (string, error) {
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	faker := gofakeit.New(seed)

	topic := req.Topic
	if topic == "" {
		topic = "the timeline"
	}
	interest := "current events"
	if len(req.Interests) > 0 {
		interest = req.Interests[rng.Intn(len(req.Interests))]
	} else if req.Tone != "" {
		// A persona with no interests still gets texture.
		interest = faker.BuzzWord()
	}
	reaction := localReactions[rng.Intn(len(localReactions))]
	template := localTemplates[rng.Intn(len(localTemplates))]

	out := strings.NewReplacer(
		"{topic}", topic,
		"{interest}", interest,
		"{reaction}", reaction,
	).Replace(template)
	return out, nil
}
