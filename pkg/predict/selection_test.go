package predict_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lisanmuaddib/twitoff/pkg/apperr"
	"github.com/lisanmuaddib/twitoff/pkg/predict"
)

var _ = Describe("ParseSelection", func() {
	It("should ignore blank slots and sort the names", func() {
		sel, err := predict.ParseSelection([]string{"", "elonmusk", " ", "austen"}, "  to the moon  ")
		Expect(err).NotTo(HaveOccurred())
		Expect(sel.Usernames).To(Equal([]string{"austen", "elonmusk"}))
		Expect(sel.Text).To(Equal("to the moon"))
	})

	It("should sort without regard to case", func() {
		sel, err := predict.ParseSelection([]string{"kylegriffin1", "KingJames", "austen"}, "hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(sel.Usernames).To(Equal([]string{"austen", "KingJames", "kylegriffin1"}))
	})

	It("should count repeated names once", func() {
		_, err := predict.ParseSelection([]string{"elonmusk", "ElonMusk", "@elonmusk", ""}, "hello")
		Expect(apperr.Is(err, apperr.CodeInsufficientSelection)).To(BeTrue())
		Expect(apperr.MessageOf(err)).To(Equal("Please select two or more different users"))
	})

	It("should require two users", func() {
		_, err := predict.ParseSelection([]string{"elonmusk"}, "hello")
		Expect(apperr.Is(err, apperr.CodeInsufficientSelection)).To(BeTrue())

		_, err = predict.ParseSelection(nil, "hello")
		Expect(apperr.Is(err, apperr.CodeInsufficientSelection)).To(BeTrue())
	})

	It("should allow at most four users", func() {
		_, err := predict.ParseSelection([]string{"a", "b", "c", "d", "e"}, "hello")
		Expect(apperr.Is(err, apperr.CodeInsufficientSelection)).To(BeTrue())
		Expect(apperr.MessageOf(err)).To(Equal("Please select at most four users"))

		sel, err := predict.ParseSelection([]string{"a", "b", "c", "d"}, "hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(sel.Usernames).To(HaveLen(4))
	})

	It("should require text", func() {
		_, err := predict.ParseSelection([]string{"a", "b"}, " \n\t")
		Expect(apperr.Is(err, apperr.CodeEmptyInput)).To(BeTrue())
		Expect(apperr.MessageOf(err)).To(Equal("Please enter a hypothetical tweet"))
	})

	It("should check the selection before the text", func() {
		_, err := predict.ParseSelection([]string{"a"}, "")
		Expect(apperr.Is(err, apperr.CodeInsufficientSelection)).To(BeTrue())
	})
})
