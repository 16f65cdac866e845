package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	cldapi "github.com/cloudinary/cloudinary-go/v2/api"

	"github.com/playzone/playzone-api/config"
)

// CloudinaryHandler handles Cloudinary related requests
type CloudinaryHandler struct{}

const avatarUploadFolder = "playzone_avatars"

// avatarTransformation matches the square face crop the clients render
const avatarTransformation = "w_300,h_300,c_fill,g_face,q_auto:best,f_auto"

// GenerateSignatureHandler signs an upload request so clients can push
// avatars straight to Cloudinary without the API key leaving the server
func (c CloudinaryHandler) GenerateSignatureHandler(w http.ResponseWriter, r *http.Request) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	params := url.Values{}
	params.Set("timestamp", timestamp)
	params.Set("folder", avatarUploadFolder)
	params.Set("transformation", avatarTransformation)
	if preset := os.Getenv("CLOUDINARY_UPLOAD_PRESET"); preset != "" {
		params.Set("upload_preset", preset)
	}

	signature, err := cldapi.SignParameters(params, os.Getenv("CLOUDINARY_API_SECRET"))
	if err != nil {
		config.ErrorStatus("failed to sign upload parameters", http.StatusInternalServerError, w, err)
		return
	}

	response := map[string]string{
		"timestamp":      timestamp,
		"folder":         avatarUploadFolder,
		"transformation": avatarTransformation,
		"signature":      signature,
		"apiKey":         os.Getenv("CLOUDINARY_API_KEY"),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
