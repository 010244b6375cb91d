package publish

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/buildcontrol/internal/settings"
	"git.home.luguber.info/inful/buildcontrol/internal/trigger"
)

func TestFromSettings_DisabledYieldsNopPublisher(t *testing.T) {
	pub, err := FromSettings(settings.NATSSettings{Enabled: false}, nil)
	require.NoError(t, err)
	require.IsType(t, NopPublisher{}, pub)
}

func TestNopPublisher_AcceptsEverything(t *testing.T) {
	pub := NopPublisher{}
	require.NoError(t, pub.PublishRequest(trigger.NewForcedRequest("website")))
	require.NoError(t, pub.PublishRequest(nil))
	require.NoError(t, pub.Close())
}

func TestNewNATSPublisher_RejectsDisabledSettings(t *testing.T) {
	_, err := NewNATSPublisher(settings.NATSSettings{Enabled: false}, nil)
	require.Error(t, err)
}
