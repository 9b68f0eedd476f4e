package common_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/budgyapp/budgy-backend/internal/common"
)

var _ = Describe("LoadConfig", func() {
	It("applies defaults when the environment is empty", func() {
		cfg := common.LoadConfig()
		Expect(cfg.Server.Addr).To(Equal(":8080"))
		Expect(cfg.LLM.Provider).To(Equal("openai"))
		Expect(cfg.LLM.Model).To(Equal("gpt-4o-mini"))
		Expect(cfg.Quota.FreeMonthlyLimit).To(Equal(10))
		Expect(cfg.RateLimit.Window).To(Equal(15 * time.Minute))
		Expect(cfg.RateLimit.MaxRequests).To(Equal(50))
	})

	It("selects the gemini key and model for the gemini provider", func() {
		GinkgoT().Setenv("LLM_PROVIDER", "gemini")
		GinkgoT().Setenv("GEMINI_API_KEY", "g-key")
		cfg := common.LoadConfig()
		Expect(cfg.LLM.Provider).To(Equal("gemini"))
		Expect(cfg.LLM.APIKey).To(Equal("g-key"))
		Expect(cfg.LLM.Model).To(Equal("gemini-2.0-flash-001"))
	})

	It("reads overrides from the environment", func() {
		GinkgoT().Setenv("HTTP_ADDR", ":9999")
		GinkgoT().Setenv("FREE_MONTHLY_LIMIT", "25")
		GinkgoT().Setenv("RATE_LIMIT_WINDOW", "1m")
		cfg := common.LoadConfig()
		Expect(cfg.Server.Addr).To(Equal(":9999"))
		Expect(cfg.Quota.FreeMonthlyLimit).To(Equal(25))
		Expect(cfg.RateLimit.Window).To(Equal(time.Minute))
	})
})

var _ = Describe("Config.Validate", func() {
	valid := func() *common.Config {
		return &common.Config{
			Store: common.StoreConfig{Path: "test.db"},
			LLM:   common.LLMConfig{APIKey: "key"},
			Auth:  common.AuthConfig{JWTSecret: "secret"},
		}
	}

	It("accepts a complete config", func() {
		Expect(valid().Validate()).To(Succeed())
	})

	It("requires the provider API key", func() {
		cfg := valid()
		cfg.LLM.APIKey = ""
		Expect(cfg.Validate()).NotTo(Succeed())
	})

	It("requires the JWT secret", func() {
		cfg := valid()
		cfg.Auth.JWTSecret = ""
		Expect(cfg.Validate()).NotTo(Succeed())
	})

	It("requires a store path", func() {
		cfg := valid()
		cfg.Store.Path = ""
		Expect(cfg.Validate()).NotTo(Succeed())
	})
})
