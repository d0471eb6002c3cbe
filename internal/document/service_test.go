package document

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/sign-form/internal/document/docx"
	"github.com/a3tai/sign-form/internal/document/docx/docxtest"
	docerrors "github.com/a3tai/sign-form/internal/document/errors"
	"github.com/a3tai/sign-form/internal/document/security"
	"github.com/a3tai/sign-form/internal/form"
	"github.com/a3tai/sign-form/internal/store"
)

var fixedDate = time.Date(2024, time.March, 7, 9, 30, 0, 0, time.Local)

var testRecord = form.Record{
	SpaceName: "갤러리카페520",
	Address:   "충북 충주시 성터5길20 2층",
	Applicant: "주경옥",
}

type countingSource struct {
	mu    sync.Mutex
	calls int
	data  []byte
	err   error
}

func (c *countingSource) Load(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return append([]byte(nil), c.data...), nil
}

func (c *countingSource) String() string { return "test" }

func formTemplate() []byte {
	body := docxtest.Paragraph("{{year}}년 {{month}}월 {{day}}일") +
		docxtest.Paragraph("청구인 공간명 : {{value1}}") +
		docxtest.Paragraph("주소: {{value2}}") +
		docxtest.Paragraph("신청자(대표) : {{value3}} ", "{{signature}}")
	return docxtest.Build(docxtest.Document(body))
}

func signatureDataURL(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

type fixture struct {
	service *Service
	forms   *form.Repository
	source  *countingSource
	dir     string
}

func newFixture(t *testing.T, withRecord, withSignature bool) *fixture {
	t.Helper()
	ctx := context.Background()

	forms := form.NewRepository(store.NewMemory())
	if withRecord {
		_, err := forms.SaveRecord(ctx, testRecord)
		require.NoError(t, err)
	}
	if withSignature {
		_, err := forms.SaveSignature(ctx, signatureDataURL(t, 300, 100))
		require.NoError(t, err)
	}

	dir := t.TempDir()
	guard, err := security.NewOutputGuard(dir)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Logger = log.New(io.Discard, "", 0)
	opts.Now = func() time.Time { return fixedDate }

	source := &countingSource{data: formTemplate()}
	return &fixture{
		service: NewService(forms, source, guard, opts),
		forms:   forms,
		source:  source,
		dir:     dir,
	}
}

func TestGenerate_DOCX(t *testing.T) {
	f := newFixture(t, true, true)

	res, err := f.service.Generate(context.Background(), Request{Format: FormatDOCX})
	require.NoError(t, err)

	assert.Equal(t, "신청서_갤러리카페520_2024-03-07.docx", res.FileName)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", res.ContentType)
	assert.NotEmpty(t, res.Data)
	assert.Equal(t, len(res.Data), res.Size)
	assert.NotEmpty(t, res.RequestID)

	a, err := docx.Open(res.Data)
	require.NoError(t, err)
	s, err := a.Summarize()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2024년 3월 7일",
		"청구인 공간명 : 갤러리카페520",
		"주소: 충북 충주시 성터5길20 2층",
		"신청자(대표) : 주경옥 ",
	}, s.Paragraphs)
	assert.Equal(t, 1, s.Images)
	assert.Equal(t, []string{"word/media/sig1.png"}, s.Media)

	part, err := a.Part(docx.DocumentPart)
	require.NoError(t, err)
	assert.Contains(t, string(part), `<wp:extent cx="762000" cy="762000"/>`, "80×80 px signature")

	media, err := a.Part("word/media/sig1.png")
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(media))
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width, "the raster is embedded unchanged")
}

func TestGenerate_PDF(t *testing.T) {
	f := newFixture(t, true, true)

	res, err := f.service.Generate(context.Background(), Request{Format: FormatPDF})
	require.NoError(t, err)
	assert.Equal(t, "신청서_갤러리카페520_2024-03-07.pdf", res.FileName)
	assert.Equal(t, "application/pdf", res.ContentType)
	assert.Zero(t, f.source.calls, "direct drawing does not use the template")

	in, err := InspectBytes(res.FileName, res.Data)
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, in.Format)
	assert.Equal(t, 1, in.Pages)
	assert.Equal(t, 1, in.Images)
}

func TestGenerate_MissingDataBeforeFetch(t *testing.T) {
	tests := []struct {
		name          string
		withRecord    bool
		withSignature bool
		wantStep      string
	}{
		{"no signature", true, false, StepSign},
		{"no record", false, true, StepInfo},
		{"nothing", false, false, StepSign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.withRecord, tt.withSignature)

			for _, format := range []Format{FormatDOCX, FormatPDF} {
				res, err := f.service.Generate(context.Background(), Request{Format: format})
				assert.Nil(t, res)

				var missing *docerrors.MissingDataError
				require.True(t, errors.As(err, &missing), "want MissingDataError, got %v", err)
				assert.Equal(t, tt.wantStep, missing.Step)
			}
			assert.Zero(t, f.source.calls, "template must not be fetched")
		})
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	f := newFixture(t, true, true)

	for _, format := range []Format{FormatDOCX, FormatPDF} {
		t.Run(string(format), func(t *testing.T) {
			first, err := f.service.Generate(context.Background(), Request{Format: format, Date: fixedDate})
			require.NoError(t, err)
			second, err := f.service.Generate(context.Background(), Request{Format: format, Date: fixedDate})
			require.NoError(t, err)

			assert.True(t, bytes.Equal(first.Data, second.Data), "identical input must yield identical bytes")
			assert.NotEqual(t, first.RequestID, second.RequestID)
		})
	}
}

func TestGenerate_TemplateErrors(t *testing.T) {
	f := newFixture(t, true, true)

	f.source.err = docerrors.NewTemplateLoadError("http://localhost:3000/document/template.docx", errors.New("connection refused"))
	_, err := f.service.Generate(context.Background(), Request{Format: FormatDOCX})
	assert.Equal(t, docerrors.ErrorTypeTemplateLoad, docerrors.TypeOf(err))

	f.source.err = nil
	f.source.data = docxtest.Build(docxtest.Document(docxtest.Paragraph("{{value1}} only")))
	_, err = f.service.Generate(context.Background(), Request{Format: FormatDOCX})
	assert.Equal(t, docerrors.ErrorTypeTemplateSyntax, docerrors.TypeOf(err), "signature without placeholder")

	msg := Describe(err)
	assert.Contains(t, msg, "오류 1:")
	assert.Contains(t, msg, "설명: unused image tag")
	assert.Contains(t, msg, "템플릿 파일의 태그가 올바르게 작성되었는지 확인해주세요.")
}

func TestGenerate_SerialisesConcurrentCalls(t *testing.T) {
	f := newFixture(t, true, true)

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Generate(context.Background(), Request{Format: FormatDOCX})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 4, f.source.calls)
}

func TestSaveAndInspect(t *testing.T) {
	f := newFixture(t, true, true)

	res, err := f.service.Generate(context.Background(), Request{Format: FormatDOCX})
	require.NoError(t, err)

	path, err := f.service.Save(res)
	require.NoError(t, err)
	assert.Equal(t, path, res.Path)
	assert.True(t, strings.HasSuffix(path, "신청서_갤러리카페520_2024-03-07.docx"))

	in, err := f.service.Inspect(res.FileName)
	require.NoError(t, err)
	assert.Equal(t, FormatDOCX, in.Format)
	assert.Equal(t, 1, in.Images)
	assert.Contains(t, in.Text, "갤러리카페520")

	_, err = f.service.Inspect("../outside.docx")
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "신청서_a_b_2024-03-07.pdf", FileName("a/b", fixedDate, FormatPDF))
	assert.Equal(t, "신청서_카페_2024-03-07.docx", FileName("카페", fixedDate, FormatDOCX))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatDOCX, false},
		{"docx", FormatDOCX, false},
		{" PDF ", FormatPDF, false},
		{"odt", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDescribe(t *testing.T) {
	assert.Empty(t, Describe(nil))
	assert.Equal(t, "시그니처가 없습니다. 이전 단계로 돌아가서 시그니처를 그려주세요.",
		Describe(docerrors.NewMissingDataError("signature", StepSign)))
	assert.Equal(t, "입력 정보가 없습니다. 첫 번째 단계로 돌아가서 정보를 입력해주세요.",
		Describe(docerrors.NewMissingDataError("form record", StepInfo)))

	joined := errors.Join(
		docerrors.NewTemplateSyntaxError("word/document.xml", "unclosed tag").WithLocation(710, "{{val"),
		docerrors.NewTemplateSyntaxError("word/document.xml", "unopened tag").WithLocation(748, "ue1}}"),
	)
	msg := Describe(joined)
	assert.Contains(t, msg, "오류 1:\n  파일: word/document.xml\n  위치: 710\n  컨텍스트: {{val\n  설명: unclosed tag")
	assert.Contains(t, msg, "오류 2:")

	assert.True(t, strings.HasSuffix(msg, "\n\n"+templateHint))

	plain := Describe(errors.New("disk full"))
	assert.Equal(t, "문서 저장 중 오류가 발생했습니다.\n\ndisk full\n\n"+templateHint, plain)
}
