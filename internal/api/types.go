package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const serverTimestampLayout = "2006-01-02 15:04:05"

// ID is a server identifier. The API emits integers; the client treats them
// as opaque strings and accepts either form on decode.
type ID string

// UnmarshalJSON accepts a JSON number, string or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits numeric ids as numbers so the server's integer columns
// accept them, and anything else as a string.
func (id ID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ID) String() string { return string(id) }

// Patient mirrors the patient record returned by /patient endpoints.
type Patient struct {
	ID             ID     `json:"id"`
	Name           string `json:"name"`
	Age            int    `json:"age"`
	Gender         string `json:"gender"`
	MedicalHistory string `json:"medical_history"`
	Email          string `json:"email"`
	DoctorID       ID     `json:"doctor_id"`
	Status         string `json:"status"`
	Created        string `json:"created"`
}

// CreatedAt returns the parsed creation timestamp, or zero.
func (p Patient) CreatedAt() time.Time {
	return parseTime(p.Created)
}

// PatientInput is the writable subset of a patient record.
type PatientInput struct {
	Name           string `json:"name"`
	Age            int    `json:"age"`
	Gender         string `json:"gender"`
	MedicalHistory string `json:"medical_history,omitempty"`
	Email          string `json:"email"`
	DoctorID       ID     `json:"doctor_id,omitempty"`
	Status         string `json:"status,omitempty"`
}

// Patient statuses used by the backend.
const (
	StatusNotVisited = "未就诊"
	StatusVisited    = "已就诊"
)

// Diagnosis mirrors a diagnosis record.
type Diagnosis struct {
	ID          ID     `json:"id"`
	Video       string `json:"video"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
	Date        string `json:"date"`
	PatientID   ID     `json:"patient_id"`
}

// DiagnosedAt returns the parsed diagnosis date, or zero.
func (d Diagnosis) DiagnosedAt() time.Time {
	return parseTime(d.Date)
}

// DiagnosisInput is the payload for creating a diagnosis.
type DiagnosisInput struct {
	Video       string `json:"video"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion,omitempty"`
	PatientID   ID     `json:"patient_id,omitempty"`
}

// DiagnosisQuery configures GET /diagnosis/ requests.
type DiagnosisQuery struct {
	PatientID ID
	Keyword   string
	Page      int
	Limit     int
}

// Registration is the body of POST /users/register.
type Registration struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// User is an account record as returned on registration.
type User struct {
	ID       ID     `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// LoginResponse is the payload returned by the login endpoint.
type LoginResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
	Name        string `json:"name"`
	ID          ID     `json:"id"`
}

// Profile is the "who am I" payload.
type Profile struct {
	Name string `json:"name"`
	ID   ID     `json:"id"`
}

type patientEnvelope struct {
	Patient Patient `json:"patient"`
}

type patientListEnvelope struct {
	Patients []Patient `json:"patients"`
}

type diagnosisEnvelope struct {
	Diagnosis Diagnosis `json:"diagnosis"`
}

type diagnosisListEnvelope struct {
	Diagnoses []Diagnosis `json:"diagnoses"`
}

type userEnvelope struct {
	User User `json:"user"`
}

type infoEnvelope struct {
	Data *Profile `json:"data"`
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, time.RFC1123} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(serverTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
