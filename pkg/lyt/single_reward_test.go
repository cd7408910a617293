package lyt

import (
	"testing"

	"github.com/speedrun-hq/lyt-testing/pkg/testenv"
)

func TestSingleReward(t *testing.T) {
	env := testenv.Build(t)
	RunRewardTest(t, env, env.QiLyt)
}
