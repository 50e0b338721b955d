package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/atfitk/websystem-api/internal/models"
	appErrors "github.com/atfitk/websystem-api/pkg/errors"
	"github.com/atfitk/websystem-api/pkg/export"
)

const (
	collegeName  = "Алматинский технологическо-финансовый и инновационно-технический колледж"
	journalTitle = "Журнал внутриколледжного и профилактического учёта студентов"
	emptyCell    = "—"
	ruDate       = "02.01.2006"
)

// Export formats accepted by Journal.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

var journalHeaders = []string{"№", "ФИО", "Группа", "Дата рождения", "Район УП", "Вид учёта УП", "Учёт колледж", "Учёт УП", "Дата постановки", "Статус"}

var journalWidths = []float64{0.6, 3, 1.2, 1.4, 1.6, 3.4, 1.4, 1, 1.4, 1.2}

var pdfImageTypes = map[string]string{
	"image/jpeg": "JPG",
	"image/png":  "PNG",
	"image/gif":  "GIF",
}

type exportStudentSource interface {
	List(ctx context.Context) ([]models.Student, error)
	Get(ctx context.Context, id string) (*models.Student, error)
}

type photoOpener interface {
	Open(filename string) (*os.File, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type xlsxRenderer interface {
	Render(data export.Dataset, sheetName string) ([]byte, error)
}

type pdfRenderer interface {
	RenderTable(table export.TableDocument) ([]byte, error)
	RenderCard(card export.Card) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders the registry journal and student cards.
type ExportService struct {
	students exportStudentSource
	photos   photoOpener
	csv      csvRenderer
	xlsx     xlsxRenderer
	pdf      pdfRenderer
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers get the defaults.
func NewExportService(students exportStudentSource, photos photoOpener, metrics *MetricsService, logger *zap.Logger, csv csvRenderer, xlsx xlsxRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if xlsx == nil {
		xlsx = export.NewXLSXExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter("")
	}
	return &ExportService{
		students: students,
		photos:   photos,
		csv:      csv,
		xlsx:     xlsx,
		pdf:      pdf,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Journal renders the filtered student list in the requested format.
func (s *ExportService) Journal(ctx context.Context, filter models.StudentFilter, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatXLSX && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Unsupported export format")
	}

	students, err := s.students.List(ctx)
	if err != nil {
		return nil, err
	}
	dataset := buildJournalDataset(filter.Apply(students))
	today := s.now()

	var data []byte
	var contentType string
	switch format {
	case FormatCSV:
		data, err = s.csv.Render(dataset)
		contentType = "text/csv; charset=utf-8"
	case FormatXLSX:
		data, err = s.xlsx.Render(dataset, "Журнал")
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		data, err = s.pdf.RenderTable(export.TableDocument{
			Title:     collegeName,
			Subtitle:  []string{journalTitle, "Дата формирования: " + today.Format(ruDate)},
			Data:      dataset,
			Widths:    journalWidths,
			Footer:    signatureLines(today),
			Landscape: true,
		})
		contentType = "application/pdf"
	}
	if err != nil {
		s.logger.Error("journal export failed", zap.String("format", format), zap.Error(err))
		return nil, exportFailure(err, "Failed to export students")
	}

	s.metrics.RecordExport("journal", format)
	return &ExportFile{
		Filename:    fmt.Sprintf("journal_%s.%s", today.Format("20060102"), format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// Card renders the printable card of one student.
func (s *ExportService) Card(ctx context.Context, id string) (*ExportFile, error) {
	student, err := s.students.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	today := s.now()

	card := buildCard(student, today)
	if photo, kind := s.loadPhoto(student.PhotoFile()); photo != nil {
		card.Photo = photo
		card.PhotoType = kind
	}

	data, err := s.pdf.RenderCard(card)
	if err != nil {
		s.logger.Error("card export failed", zap.String("student_id", id), zap.Error(err))
		return nil, exportFailure(err, "Failed to export student")
	}

	s.metrics.RecordExport("card", FormatPDF)
	return &ExportFile{
		Filename:    fmt.Sprintf("card_%s.pdf", student.ID),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

// loadPhoto returns the photo bytes when the PDF renderer can embed them.
func (s *ExportService) loadPhoto(filename string) (io.Reader, string) {
	if filename == "" || s.photos == nil {
		return nil, ""
	}
	file, err := s.photos.Open(filename)
	if err != nil {
		s.logger.Warn("card photo unavailable", zap.String("photo", filename), zap.Error(err))
		return nil, ""
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		s.logger.Warn("card photo unreadable", zap.String("photo", filename), zap.Error(err))
		return nil, ""
	}
	kind, ok := pdfImageTypes[mimetype.Detect(raw).String()]
	if !ok {
		return nil, ""
	}
	return bytes.NewReader(raw), kind
}

func buildJournalDataset(students []models.Student) export.Dataset {
	rows := make([]map[string]string, 0, len(students))
	for i := range students {
		st := &students[i]
		ir := st.InternalRegistry
		pr := st.PoliceRegistry

		district, policeType, police := emptyCell, emptyCell, "Нет"
		if pr.IsRegistered {
			district = orDash(pr.District)
			policeType = orDash(pr.RegistrationType)
			police = "Да"
		}
		college := "Нет"
		if ir.RegistrationDate != "" {
			college = ir.Status
			if college == "" {
				college = "Да"
			}
		}

		rows = append(rows, map[string]string{
			"№":               strconv.Itoa(i + 1),
			"ФИО":             st.FullName,
			"Группа":          orDash(st.Group),
			"Дата рождения":   orDash(st.BirthDate),
			"Район УП":        district,
			"Вид учёта УП":    policeType,
			"Учёт колледж":    college,
			"Учёт УП":         police,
			"Дата постановки": orDash(ir.RegistrationDate),
			"Статус":          orDash(ir.Status),
		})
	}
	return export.Dataset{Headers: journalHeaders, Rows: rows}
}

func buildCard(st *models.Student, today time.Time) export.Card {
	ir := st.InternalRegistry
	pr := st.PoliceRegistry
	fam := st.Family

	course := ""
	if st.Course != "" {
		course = st.Course + " курс"
	}

	basic := export.CardSection{Title: "Основные данные", Rows: []export.CardRow{
		{Label: "ФИО", Value: st.FullName},
		{Label: "Дата рождения", Value: st.BirthDate},
		{Label: "ИИН", Value: st.IIN},
		{Label: "Группа", Value: st.Group},
		{Label: "Специальность", Value: st.Specialty},
		{Label: "Курс", Value: course},
		{Label: "Предыдущая школа", Value: st.PreviousSchool},
		{Label: "Адрес проживания", Value: st.Address},
		{Label: "Телефон", Value: st.Phone},
	}}

	family := export.CardSection{Title: "Данные о семье"}
	if fam.Mother.FullName != "" {
		family.Rows = append(family.Rows,
			export.CardRow{Label: "Мать (ФИО)", Value: fam.Mother.FullName},
			export.CardRow{Label: "Место работы", Value: fam.Mother.Workplace},
			export.CardRow{Label: "Телефон", Value: fam.Mother.Phone},
		)
	}
	if fam.Father.FullName != "" {
		family.Rows = append(family.Rows,
			export.CardRow{Label: "Отец (ФИО)", Value: fam.Father.FullName},
			export.CardRow{Label: "Место работы", Value: fam.Father.Workplace},
			export.CardRow{Label: "Телефон", Value: fam.Father.Phone},
		)
	}
	if fam.Guardian.FullName != "" {
		family.Rows = append(family.Rows,
			export.CardRow{Label: "Законный представитель", Value: fam.Guardian.FullName},
			export.CardRow{Label: "Родство", Value: fam.Guardian.Relationship},
			export.CardRow{Label: "Телефон", Value: fam.Guardian.Phone},
		)
	}
	children := ""
	if fam.ChildrenCount > 0 {
		children = strconv.Itoa(fam.ChildrenCount)
	}
	family.Rows = append(family.Rows,
		export.CardRow{Label: "Состав семьи", Value: fam.FamilyType},
		export.CardRow{Label: "Количество детей", Value: children},
		export.CardRow{Label: "Социальный статус", Value: fam.SocialStatus},
	)

	internal := export.CardSection{Title: "Внутриколледжный учёт", Rows: []export.CardRow{
		{Label: "Дата постановки", Value: ir.RegistrationDate},
		{Label: "Основание", Value: strings.Join(ir.Grounds, ", ")},
		{Label: "Ответственный", Value: ir.Responsible},
		{Label: "Статус", Value: ir.Status},
	}}
	if ir.Status == models.StatusRemoved {
		internal.Rows = append(internal.Rows,
			export.CardRow{Label: "Дата снятия", Value: ir.RemovalDate},
			export.CardRow{Label: "Основание снятия", Value: ir.RemovalGrounds},
		)
	}
	internal.Rows = append(internal.Rows,
		export.CardRow{Label: "Профилактическая работа", Value: ir.PreventiveWork},
		export.CardRow{Label: "Результат", Value: ir.Result},
	)

	police := export.CardSection{Title: "Учёт в Управлении полиции", Rows: []export.CardRow{
		{Label: "Состоит на учёте", Value: yesNo(pr.IsRegistered)},
	}}
	if pr.IsRegistered {
		police.Rows = append(police.Rows,
			export.CardRow{Label: "Область", Value: pr.Region},
			export.CardRow{Label: "Район", Value: pr.District},
			export.CardRow{Label: "Орган полиции", Value: pr.PoliceOrgan},
			export.CardRow{Label: "Вид учёта", Value: pr.RegistrationType},
			export.CardRow{Label: "Дата постановки", Value: pr.RegistrationDate},
			export.CardRow{Label: "Основание постановки", Value: pr.Grounds},
			export.CardRow{Label: "Инспектор полиции", Value: pr.Inspector},
			export.CardRow{Label: "Дата снятия", Value: pr.RemovalDate},
			export.CardRow{Label: "Основание снятия", Value: pr.RemovalGrounds},
		)
	}

	sections := []export.CardSection{basic, family, internal, police}

	if last, ok := st.Consultations.Latest(); ok {
		sections = append(sections, export.CardSection{Title: "Работа психолога", Rows: []export.CardRow{
			{Label: "Дата последней консультации", Value: last.Date},
			{Label: "Вид работы", Value: last.WorkType},
			{Label: "Заключение", Value: last.Conclusion},
			{Label: "Рекомендации", Value: last.Recommendations},
			{Label: "Динамика", Value: last.Dynamics},
		}})
	}
	if r := st.PsychologistRegistry; r.IsRegistered {
		sections = append(sections, export.CardSection{Title: "Учёт у психолога", Rows: []export.CardRow{
			{Label: "Дата постановки", Value: r.RegistrationDate},
			{Label: "Основание", Value: r.Grounds},
			{Label: "Ответственный", Value: r.Responsible},
			{Label: "Статус", Value: r.Status},
		}})
	}
	if g := st.SupportGroup; g.IsMember {
		sections = append(sections, export.CardSection{Title: "Группа сопровождения", Rows: []export.CardRow{
			{Label: "Группа", Value: g.GroupName},
			{Label: "Дата включения", Value: g.JoinDate},
			{Label: "Ответственный", Value: g.Responsible},
			{Label: "Результат", Value: g.Result},
		}})
	}
	if r := st.PsychiatristRegistry; r.IsRegistered {
		sections = append(sections, export.CardSection{Title: "Учёт у психиатра", Rows: []export.CardRow{
			{Label: "Организация", Value: r.Organization},
			{Label: "Дата постановки", Value: r.RegistrationDate},
			{Label: "Врач", Value: r.Doctor},
			{Label: "Статус", Value: r.Status},
		}})
	}
	if a := st.CppAccompaniment; a.IsActive {
		sections = append(sections, export.CardSection{Title: "Сопровождение ЦПП", Rows: []export.CardRow{
			{Label: "Дата начала", Value: a.StartDate},
			{Label: "Специалист", Value: a.Specialist},
			{Label: "Вид работы", Value: a.WorkType},
			{Label: "Результаты", Value: a.Results},
		}})
	}
	if r := st.SuicideRegistry; r.HasFacts {
		section := export.CardSection{Title: "Суицидальные проявления"}
		for _, incident := range r.Incidents {
			section.Rows = append(section.Rows, export.CardRow{
				Label: orDash(incident.Date),
				Value: strings.TrimSpace(incident.Type + " " + incident.Measures),
			})
		}
		sections = append(sections, section)
	}

	return export.Card{
		Header:   []string{collegeName, "КАРТОЧКА СТУДЕНТА", "состоящего на внутриколледжном и профилактическом учёте"},
		Sections: sections,
		Footer:   signatureLines(today),
	}
}

func signatureLines(today time.Time) []string {
	return []string{
		"Заместитель директора: ___________________________",
		"Психолог: ___________________________",
		"Дата: " + today.Format(ruDate),
	}
}

func orDash(v string) string {
	if v == "" {
		return emptyCell
	}
	return v
}

func yesNo(v bool) string {
	if v {
		return "Да"
	}
	return "Нет"
}

func exportFailure(err error, message string) error {
	if errors.Is(err, export.ErrFontRequired) {
		return appErrors.Wrap(err, "EXPORT_UNAVAILABLE", http.StatusServiceUnavailable, "PDF export is not configured")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
