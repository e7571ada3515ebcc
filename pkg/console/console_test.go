package console

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ariyeh/bagtag/internal/fakeapi"
	"github.com/ariyeh/bagtag/pkg/api"
	"github.com/ariyeh/bagtag/pkg/capability"
	"github.com/ariyeh/bagtag/pkg/device"
	"github.com/ariyeh/bagtag/pkg/form"
	"github.com/ariyeh/bagtag/pkg/models"
	"github.com/ariyeh/bagtag/pkg/scan"
)

func newEnv(origin string, reader bool) capability.Environment {
	env, err := capability.NewStaticEnvironment(origin, reader)
	Expect(err).NotTo(HaveOccurred())
	return env
}

func scriptReader(entries ...device.ScriptEntry) scan.Reader {
	r, err := device.NewScriptReader(device.Script{Readings: entries})
	Expect(err).NotTo(HaveOccurred())
	return r
}

var _ = Describe("Console", func() {
	var (
		backend *fakeapi.Server
		server  *httptest.Server
		ctx     context.Context
	)

	BeforeEach(func() {
		backend = fakeapi.New()
		server = httptest.NewServer(backend.Router())
		ctx = context.Background()
	})

	AfterEach(func() {
		server.Close()
	})

	newConsole := func(opts Options) *Console {
		return New(api.NewClient(server.URL), opts)
	}

	Context("creating a bag", func() {
		It("binds the new bag to the Entrupy form and the inventory", func() {
			backend.Store.SetNextBagID(7)
			c := newConsole(Options{})

			By("filling the bag form")
			c.BagForm.SetField(form.FieldDisplayName, "Tote A")
			c.BagForm.SetField(form.FieldBrand, "Acme")
			c.BagForm.SetField(form.FieldTagCode, "TAG-1")

			created, err := c.SubmitBag(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(models.Value(created.Bag.ID)).To(Equal(int64(7)))

			By("checking the dependent state")
			bagID, ok := c.EntrupyForm.Int(form.FieldBagID)
			Expect(ok).To(BeTrue())
			Expect(bagID).To(Equal(int64(7)))

			rows := c.Inventory().Rows()
			Expect(rows).To(HaveLen(1))
			Expect(models.Value(rows[0].ID)).To(Equal(int64(7)))
			Expect(models.Value(rows[0].DisplayName)).To(Equal("Tote A"))
			Expect(models.Value(rows[0].TagCode)).To(Equal("TAG-1"))

			Expect(c.Page(PageBag).Result).To(Equal(created))
			Expect(c.Page(PageBag).Err).To(BeNil())
		})

		It("refuses locally when required fields are empty", func() {
			c := newConsole(Options{})
			c.BagForm.SetField(form.FieldDisplayName, "Tote A")

			_, err := c.SubmitBag(ctx)
			var missing *form.MissingFieldError
			Expect(errors.As(err, &missing)).To(BeTrue())
			Expect(missing.Fields).To(ConsistOf(form.FieldBrand, form.FieldTagCode))
			Expect(c.Inventory().Len()).To(BeZero())
			Expect(backend.Store.ListBags()).To(BeEmpty())
		})

		It("surfaces server errors and keeps the Entrupy form unchanged", func() {
			c := newConsole(Options{})
			c.BagForm.SetField(form.FieldDisplayName, "Tote A")
			c.BagForm.SetField(form.FieldBrand, "Acme")
			c.BagForm.SetField(form.FieldTagCode, "TAG-1")
			backend.FailNext("POST /api/admin/bags", http.StatusInternalServerError)

			_, err := c.SubmitBag(ctx)
			var reqErr *api.RequestError
			Expect(errors.As(err, &reqErr)).To(BeTrue())
			Expect(reqErr.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(c.Page(PageBag).ErrorMessage()).To(Equal("Request failed: 500 - Internal Server Error"))

			bagID, _ := c.EntrupyForm.Int(form.FieldBagID)
			Expect(bagID).To(Equal(form.DefaultEntrupyBagID))
		})
	})

	Context("scanning a tag", func() {
		It("writes the text record into the bag form", func() {
			c := newConsole(Options{
				Env:    newEnv("http://localhost:3000", true),
				Reader: scriptReader(device.ScriptEntry{SerialNumber: "04:aa", Text: "T-99"}),
			})

			sess := c.StartBagTagScan(ctx)
			Eventually(sess.Done()).Should(BeClosed())

			Expect(c.BagForm.String(form.FieldTagCode)).To(Equal("T-99"))
			Expect(c.Page(PageBag).Status).To(Equal("Scanned tag: T-99"))
			Expect(c.Page(PageBag).Err).To(BeNil())
			Expect(c.LookupForm.String(form.FieldTagCode)).To(BeEmpty())
		})

		It("reports an insecure origin without touching the form", func() {
			c := newConsole(Options{
				Env:    newEnv("http://192.168.1.20:3000", true),
				Reader: scriptReader(device.ScriptEntry{Text: "T-1"}),
			})

			sess := c.StartLookupScan(ctx)
			Eventually(sess.Done()).Should(BeClosed())

			Expect(c.ScanState(PageLookup)).To(Equal(scan.StateErrored))
			Expect(errors.Is(c.Page(PageLookup).Err, scan.ErrInsecureContext)).To(BeTrue())
			Expect(c.Page(PageLookup).Status).To(BeEmpty())
			Expect(c.LookupForm.String(form.FieldTagCode)).To(BeEmpty())
		})

		It("lets a newer scan supersede a slow one", func() {
			c := newConsole(Options{
				Env:    newEnv("https://console.example.com", true),
				Reader: scriptReader(device.ScriptEntry{Delay: "200ms", Text: "LATE"}),
			})

			first := c.StartBagTagScan(ctx)
			c.BagForm.SetField(form.FieldTagCode, "MANUAL")
			second := c.StartBagTagScan(ctx)
			Eventually(first.Done()).Should(BeClosed())
			Expect(first.Superseded()).To(BeTrue())
			Expect(first.Values()).To(BeZero())

			Eventually(second.Done(), time.Second).Should(BeClosed())
			Expect(c.BagForm.String(form.FieldTagCode)).To(Equal("LATE"))
			Expect(second.Values()).To(Equal(1))
		})
	})

	Context("saving an Entrupy record", func() {
		It("refuses while dimensions hold invalid text", func() {
			c := newConsole(Options{})
			Expect(c.EntrupyForm.SetStructuredFieldFromText(form.FieldDimensions, "{")).To(HaveOccurred())

			_, err := c.SubmitEntrupy(ctx)
			Expect(errors.Is(err, form.ErrInvalidForm)).To(BeTrue())
			Expect(c.Page(PageEntrupy).Err).To(MatchError(form.ErrInvalidForm))
		})

		It("saves against the bound bag", func() {
			backend.Store.SetNextBagID(3)
			c := newConsole(Options{})
			c.BagForm.SetField(form.FieldDisplayName, "Tote A")
			c.BagForm.SetField(form.FieldBrand, "Acme")
			c.BagForm.SetField(form.FieldTagCode, "TAG-3")
			_, err := c.SubmitBag(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.EntrupyForm.SetStructuredFieldFromText(form.FieldCatalogRaw, `{"sku":"X1"}`)).To(Succeed())
			rec, err := c.SubmitEntrupy(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(models.Value(rec.BagID)).To(Equal(int64(3)))
			Expect(rec.CatalogRaw).To(HaveKeyWithValue("sku", "X1"))
		})

		It("reports a missing bag", func() {
			c := newConsole(Options{})
			_, err := c.SubmitEntrupy(ctx)
			Expect(err).To(MatchError("Request failed: 404 - Bag not found"))
		})
	})

	Context("looking up a tag", func() {
		It("returns 404 for an unknown code and leaves the forms alone", func() {
			c := newConsole(Options{})
			c.BagForm.SetField(form.FieldBrand, "Acme")
			c.LookupForm.SetField(form.FieldTagCode, "UNKNOWN")
			bagBefore := c.BagForm.Snapshot()
			entrupyBefore := c.EntrupyForm.Snapshot()
			lookupBefore := c.LookupForm.Snapshot()

			_, err := c.Lookup(ctx)
			var reqErr *api.RequestError
			Expect(errors.As(err, &reqErr)).To(BeTrue())
			Expect(reqErr.NotFound()).To(BeTrue())
			Expect(err.Error()).To(Equal("Request failed: 404 - Tag not found"))

			Expect(c.BagForm.Snapshot()).To(Equal(bagBefore))
			Expect(c.EntrupyForm.Snapshot()).To(Equal(entrupyBefore))
			Expect(c.LookupForm.Snapshot()).To(Equal(lookupBefore))
		})

		It("refuses an empty code", func() {
			c := newConsole(Options{})
			_, err := c.Lookup(ctx)
			Expect(err).To(MatchError(ErrEmptyTagCode))
		})

		It("keeps the previous result when a later lookup fails", func() {
			c := newConsole(Options{})
			c.BagForm.SetField(form.FieldDisplayName, "Tote A")
			c.BagForm.SetField(form.FieldBrand, "Acme")
			c.BagForm.SetField(form.FieldTagCode, "TAG-1")
			_, err := c.SubmitBag(ctx)
			Expect(err).NotTo(HaveOccurred())

			c.LookupForm.SetField(form.FieldTagCode, "TAG-1")
			found, err := c.Lookup(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(models.Value(found.Bag.DisplayName)).To(Equal("Tote A"))

			c.LookupForm.SetField(form.FieldTagCode, "NOPE")
			_, err = c.Lookup(ctx)
			Expect(err).To(HaveOccurred())
			Expect(c.Page(PageLookup).Result).To(Equal(found))
		})
	})

	Context("refreshing the inventory", func() {
		It("replaces contents with the server list", func() {
			backend.Store.CreateBag(models.BagCreateRequest{DisplayName: "One", Brand: "A", TagCode: "T1"})
			backend.Store.CreateBag(models.BagCreateRequest{DisplayName: "Two", Brand: "A", TagCode: "T2"})
			c := newConsole(Options{})

			Expect(c.RefreshInventory(ctx)).To(Succeed())
			rows := c.Inventory().Rows()
			Expect(rows).To(HaveLen(2))
			Expect(models.Value(rows[0].DisplayName)).To(Equal("Two"))
		})

		It("keeps the rows on failure", func() {
			c := newConsole(Options{})
			c.Inventory().Prepend(models.InventoryRow{ID: models.Ptr[int64](1)})
			backend.FailNext("GET /api/admin/bags", http.StatusBadGateway)

			Expect(c.RefreshInventory(ctx)).NotTo(Succeed())
			Expect(c.Inventory().Len()).To(Equal(1))
			Expect(c.Inventory().LastError()).To(HaveOccurred())
		})
	})
})
