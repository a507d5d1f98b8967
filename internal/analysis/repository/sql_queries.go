package repository

const (
	jobColumns = `job_id, video_id, user_id, video_key, status, started_at, completed_at,
				technique_hint, style_hint, model_id, frame_count, frames_analyzed,
				overall_score, technique_name, style, sub_scores, strengths, improvements,
				tips, safety_notes, next_steps, raw_response, parse_failed, error_message`

	createJobQuery = `INSERT INTO analysis_jobs (job_id, video_id, user_id, video_key, status, started_at,
					technique_hint, style_hint, model_id, frame_count)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
					RETURNING ` + jobColumns

	getJobByIDQuery = `SELECT ` + jobColumns + ` FROM analysis_jobs WHERE job_id = $1`

	getActiveJobQuery = `SELECT ` + jobColumns + ` FROM analysis_jobs
					WHERE video_id = $1 AND user_id = $2 AND status IN ('pending', 'processing')
					ORDER BY started_at LIMIT 1`

	updateJobQuery = `UPDATE analysis_jobs
					SET status = $2,
					    completed_at = $3,
					    frames_analyzed = $4,
					    overall_score = $5,
					    technique_name = $6,
					    style = $7,
					    sub_scores = $8,
					    strengths = $9,
					    improvements = $10,
					    tips = $11,
					    safety_notes = $12,
					    next_steps = $13,
					    raw_response = $14,
					    parse_failed = $15,
					    error_message = $16
					WHERE job_id = $1`

	listCompletedScoresQuery = `SELECT overall_score FROM analysis_jobs
					WHERE user_id = $1 AND technique_hint = $2 AND style_hint = $3
					AND status = 'completed' AND overall_score IS NOT NULL
					ORDER BY completed_at`

	listRecentCompletedJobsQuery = `SELECT ` + jobColumns + ` FROM analysis_jobs
					WHERE user_id = $1 AND technique_hint = $2 AND style_hint = $3 AND status = 'completed'
					ORDER BY completed_at DESC LIMIT $4`

	progressColumns = `user_id, technique_name, style, first_score, latest_score, best_score,
				average_score, total_analyses, improvement_rate, first_job_id, latest_job_id,
				first_date, latest_date`

	getProgressQuery = `SELECT ` + progressColumns + ` FROM technique_progress
					WHERE user_id = $1 AND technique_name = $2 AND style = $3`

	listProgressQuery = `SELECT ` + progressColumns + ` FROM technique_progress
					WHERE user_id = $1 ORDER BY latest_date DESC`

	upsertProgressQuery = `INSERT INTO technique_progress (user_id, technique_name, style, first_score,
					latest_score, best_score, average_score, total_analyses, improvement_rate,
					first_job_id, latest_job_id, first_date, latest_date)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
					ON CONFLICT (user_id, technique_name, style) DO UPDATE
					SET latest_score = EXCLUDED.latest_score,
					    best_score = EXCLUDED.best_score,
					    average_score = EXCLUDED.average_score,
					    total_analyses = EXCLUDED.total_analyses,
					    improvement_rate = EXCLUDED.improvement_rate,
					    latest_job_id = EXCLUDED.latest_job_id,
					    latest_date = EXCLUDED.latest_date`
)
