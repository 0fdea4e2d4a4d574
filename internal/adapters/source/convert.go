package source

import "github.com/ivasko/courtline/internal/domain/normalize"

// Records converts the decoded snapshot into normalizer input. Status
// decoding cannot fail here: Load already rejected reservations whose
// status does not decode.
func (s *Snapshot) Records() normalize.Input {
	in := normalize.Input{
		People:       make([]normalize.PersonRecord, 0, len(s.People)),
		Events:       make([]normalize.EventRecord, 0, len(s.Events)),
		Reservations: make([]normalize.ReservationRecord, 0, len(s.Reservations)),
	}

	for _, p := range s.People {
		in.People = append(in.People, normalize.PersonRecord{
			ID:         p.ID,
			GivenName:  p.GivenName,
			FamilyName: p.FamilyName,
			NationalID: p.NationalID,
			BirthDate:  p.BirthDate,
			Residence:  p.Residence,
			Faculty:    p.Faculty,
			CreatedAt:  p.CreatedAt.Time,
		})
	}

	for _, e := range s.Events {
		cancelled := (e.CancelledAt != nil && !e.CancelledAt.IsZero()) ||
			(e.DeletedAt != nil && !e.DeletedAt.IsZero())
		in.Events = append(in.Events, normalize.EventRecord{
			ID:        e.ID,
			Title:     e.Title,
			Location:  e.Location,
			StartsAt:  e.StartsAt.Time,
			Capacity:  e.TotalUnits,
			Cancelled: cancelled,
		})
	}

	for _, r := range s.Reservations {
		status, _ := r.DecodeStatus()
		in.Reservations = append(in.Reservations, normalize.ReservationRecord{
			ID:        r.ID,
			PersonID:  r.PersonID,
			EventID:   r.EventID,
			Status:    status,
			CreatedAt: r.CreatedAt.Time,
		})
	}
	return in
}
