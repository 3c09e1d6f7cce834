package controllers

import (
	"net/http"

	"github.com/rowncoffee/rown-backend/api/responses"
	"github.com/rowncoffee/rown-backend/api/validators"
	"github.com/rowncoffee/rown-backend/internal/paymentproof"
	pkgerrors "github.com/rowncoffee/rown-backend/pkg/errors"
	"github.com/rowncoffee/rown-backend/pkg/logger"
)

const standaloneProofField = "file"

// PaymentProofUpload serves the standalone proof upload page. PDF receipts
// are accepted here in addition to images.
func PaymentProofUpload(uploader paymentproof.Uploader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if uploader == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "payment proof storage not configured"))
			return
		}

		if err := validators.ParseMultipartForm(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		header := validators.OptionalFile(r, standaloneProofField)
		if header == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "file not found in form data").
				WithDetails(map[string]any{"field": standaloneProofField}))
			return
		}

		file, err := paymentproof.FromMultipart(header)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable payment proof"))
			return
		}
		if err := paymentproof.Validate(file.FileInfo, paymentproof.ScopeStandalone); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stored, err := uploader.Upload(r.Context(), file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stored)
	}
}
