package loader

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// documentValidator checks the struct tags on Document and renders English messages.
type documentValidator struct {
	v     *validator.Validate
	trans ut.Translator
}

func newDocumentValidator() *documentValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names so field paths match the document.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	return &documentValidator{v: v, trans: trans}
}

// check validates doc and converts the first tag violation into a MalformedExamError.
func (dv *documentValidator) check(doc *Document) error {
	err := dv.v.Struct(doc)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return &MalformedExamError{Kind: KindMissingField, Index: -1, Detail: err.Error(), Err: err}
	}

	fe := ve[0]
	kind := KindMissingField
	if fe.Tag() == "oneof" {
		kind = KindInvalidCorrectAnswer
	}
	path := fieldPath(fe.Namespace())
	return &MalformedExamError{
		Kind:   kind,
		Field:  path,
		Index:  questionIndex(path),
		Detail: fe.Translate(dv.trans),
		Err:    err,
	}
}

// fieldPath strips the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// questionIndex extracts N from a path starting with questions[N], or returns -1.
func questionIndex(path string) int {
	const prefix = "questions["
	if !strings.HasPrefix(path, prefix) {
		return -1
	}
	end := strings.Index(path, "]")
	if end < len(prefix) {
		return -1
	}
	n, err := strconv.Atoi(path[len(prefix):end])
	if err != nil {
		return -1
	}
	return n
}
