package configcmder

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("mask", func() {
	It("leaves empty values empty", func() {
		Expect(mask("")).To(BeEmpty())
	})

	It("hides short values entirely", func() {
		Expect(mask("hunter2")).To(Equal("********"))
	})

	It("keeps the last four characters of long values", func() {
		Expect(mask("EAAGm0PX4ZCpsBAabcd")).To(Equal("********abcd"))
	})

	It("covers the credential keys", func() {
		Expect(secretKeys).To(HaveKey("messenger.page_access_token"))
		Expect(secretKeys).To(HaveKey("session.redis_password"))
	})
})

var _ = Describe("display", func() {
	It("masks secret keys unless asked not to", func() {
		Expect(display("messenger.verify_token", "hub-verify-token", false)).To(Equal("********oken"))
		Expect(display("messenger.verify_token", "hub-verify-token", true)).To(Equal("hub-verify-token"))
	})

	It("never masks ordinary keys", func() {
		Expect(display("session.provider", "redis", false)).To(Equal("redis"))
	})
})
