package device

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type DeviceSuite struct {
	suite.Suite
}

func TestDeviceSuite(t *testing.T) {
	suite.Run(t, new(DeviceSuite))
}

func (s *DeviceSuite) TestDisplayName() {
	s.Run("empty user agent", func() {
		s.Equal("Unknown Device", DisplayName(""))
		s.Equal("Unknown Device", DisplayName("   "))
	})

	s.Run("chrome on desktop", func() {
		name := DisplayName("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		s.Contains(name, "Chrome")
		s.Contains(name, " on ")
		s.NotContains(name, "  ")
	})

	s.Run("safari on iphone names the platform", func() {
		name := DisplayName("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
		s.Contains(name, " on ")
		s.Contains(name, "iPhone")
	})

	s.Run("firefox on linux", func() {
		name := DisplayName("Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")
		s.Contains(name, "Firefox")
		s.Contains(name, "Linux")
	})

	s.Run("unrecognised agent still yields a label", func() {
		name := DisplayName("Unknown/1.0")
		s.Contains(name, " on ")
	})
}

func (s *DeviceSuite) TestIsMobile() {
	s.True(IsMobile("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"))
	s.False(IsMobile("Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"))
	s.False(IsMobile(""))
}
