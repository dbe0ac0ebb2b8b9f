package utils

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("UserAgent", func() {
	It("names the product and version", func() {
		Expect(UserAgent()).To(Equal("studybot/" + Version))
	})
})
