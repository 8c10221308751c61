package routh_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRouth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Routh-Hurwitz Suite")
}
